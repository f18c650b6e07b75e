package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) (*SessionBus, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionBus(client, nil), client
}

func TestSessionBus_PublishAndRelay(t *testing.T) {
	bus, _ := newBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan models.SessionEvent, 1)
	go sub.Run(ctx, func(e models.SessionEvent) { received <- e })

	notice := &models.Notice{Title: "Booking Successful", Status: models.NoticeSuccess, DurationMS: 7000}
	require.NoError(t, bus.Publish(ctx, models.SessionEvent{
		Type:      models.SessionEventNotice,
		SessionID: "s-1",
		Notice:    notice,
	}))

	select {
	case e := <-received:
		assert.Equal(t, "s-1", e.SessionID)
		assert.Equal(t, models.SessionEventNotice, e.Type)
		require.NotNil(t, e.Notice)
		assert.Equal(t, "Booking Successful", e.Notice.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not relayed")
	}
}

func TestSessionBus_PublishRequiresSession(t *testing.T) {
	bus, _ := newBus(t)
	err := bus.Publish(context.Background(), models.SessionEvent{Type: models.SessionEventNotice})
	assert.Error(t, err)
}

func TestSessionBus_MalformedPayloadSkipped(t *testing.T) {
	bus, client := newBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan models.SessionEvent, 2)
	go sub.Run(ctx, func(e models.SessionEvent) { received <- e })

	require.NoError(t, client.Publish(ctx, SessionChannel("s-2"), "not json").Err())
	require.NoError(t, client.Publish(ctx, SessionChannel("s-2"), `{"type":"notice"}`).Err())

	select {
	case e := <-received:
		assert.Equal(t, "s-2", e.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not relayed")
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaBookingPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaBookingPublisher(w, nil)

	booking := models.BookingRecord{ID: "b-1", Name: "Asha", Contact: "9876543210", Date: "2024-05-01", TimeSlot: "18:00"}
	require.NoError(t, p.PublishBookingConfirmed(context.Background(), "s-1", booking))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "2024-05-01/18:00", string(w.msgs[0].Key))

	var evt BookingConfirmed
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &evt))
	assert.Equal(t, BookingConfirmedType, evt.Type)
	assert.Equal(t, "s-1", evt.SessionID)
	assert.Equal(t, "b-1", evt.Booking.ID)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaBookingPublisher_WriteError(t *testing.T) {
	p := NewKafkaBookingPublisher(&fakeWriter{err: errors.New("no leader")}, nil)
	err := p.PublishBookingConfirmed(context.Background(), "s-1", models.BookingRecord{})
	assert.ErrorContains(t, err, "no leader")
}
