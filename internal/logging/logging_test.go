package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	logger, err := New("development", "warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = New("production", "not-a-level")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestTemporalLogger_KeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tl := NewTemporalLogger(zap.New(core))

	tl.Info("session started", "sessionId", "s-1")
	tl.With("workflow", "BookingSessionWorkflow").(*TemporalLogger).Warn("payment timed out", "attempt", 1)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "session started", entries[0].Message)
	assert.Equal(t, "s-1", entries[0].ContextMap()["sessionId"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "BookingSessionWorkflow", entries[1].ContextMap()["workflow"])
	assert.EqualValues(t, 1, entries[1].ContextMap()["attempt"])
}
