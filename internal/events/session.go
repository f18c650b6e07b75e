// Package events moves session events and booking events between processes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionChannelPrefix prefixes the Redis channel of every form session
const SessionChannelPrefix = "booking:session:"

// SessionChannel returns the Redis channel for a session
func SessionChannel(sessionID string) string {
	return SessionChannelPrefix + sessionID
}

// SessionBus publishes and relays session events over Redis pub/sub
type SessionBus struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSessionBus creates a SessionBus
func NewSessionBus(client *redis.Client, logger *zap.Logger) *SessionBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionBus{client: client, logger: logger}
}

// Publish sends an event to the session's channel
func (b *SessionBus) Publish(ctx context.Context, event models.SessionEvent) error {
	if event.SessionID == "" {
		return fmt.Errorf("session event without session id")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode session event: %w", err)
	}
	receivers, err := b.client.Publish(ctx, SessionChannel(event.SessionID), data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish session event: %w", err)
	}
	b.logger.Debug("session event published",
		zap.String("sessionId", event.SessionID),
		zap.String("type", string(event.Type)),
		zap.Int64("receivers", receivers))
	return nil
}

// Subscription receives events for every session
type Subscription struct {
	pubsub *redis.PubSub
	logger *zap.Logger
}

// Subscribe listens on all session channels. It returns once Redis has
// confirmed the subscription.
func (b *SessionBus) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := b.client.PSubscribe(ctx, SessionChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to session events: %w", err)
	}
	return &Subscription{pubsub: pubsub, logger: b.logger}, nil
}

// Run delivers events to handle until ctx is done or the subscription is closed
func (s *Subscription) Run(ctx context.Context, handle func(models.SessionEvent)) {
	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event models.SessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logger.Warn("dropping malformed session event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if event.SessionID == "" {
				event.SessionID = strings.TrimPrefix(msg.Channel, SessionChannelPrefix)
			}
			handle(event)
		}
	}
}

// Close ends the subscription
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}
