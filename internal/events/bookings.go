package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// BookingConfirmedType is the type of the event emitted for every persisted booking
const BookingConfirmedType = "booking.confirmed"

// BookingConfirmed is the payload written to the bookings topic
type BookingConfirmed struct {
	Type       string               `json:"type"`
	SessionID  string               `json:"sessionId"`
	Booking    models.BookingRecord `json:"booking"`
	OccurredAt time.Time            `json:"occurredAt"`
}

// BookingPublisher announces confirmed bookings to downstream consumers
type BookingPublisher interface {
	PublishBookingConfirmed(ctx context.Context, sessionID string, booking models.BookingRecord) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer used by KafkaBookingPublisher
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaBookingPublisher writes booking events to Kafka
type KafkaBookingPublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewKafkaWriter creates a writer keyed by booking slot
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaBookingPublisher creates a publisher on top of writer
func NewKafkaBookingPublisher(writer MessageWriter, logger *zap.Logger) *KafkaBookingPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaBookingPublisher{writer: writer, logger: logger}
}

// PublishBookingConfirmed writes one booking.confirmed event keyed by date and slot
func (p *KafkaBookingPublisher) PublishBookingConfirmed(ctx context.Context, sessionID string, booking models.BookingRecord) error {
	evt := BookingConfirmed{
		Type:       BookingConfirmedType,
		SessionID:  sessionID,
		Booking:    booking,
		OccurredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode booking event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(booking.Date + "/" + booking.TimeSlot),
		Value: data,
		Time:  evt.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish booking event: %w", err)
	}
	p.logger.Info("booking event published", zap.String("bookingId", booking.ID), zap.String("sessionId", sessionID))
	return nil
}

// Close flushes and closes the writer
func (p *KafkaBookingPublisher) Close() error {
	return p.writer.Close()
}

// NoopBookingPublisher is used when no brokers are configured
type NoopBookingPublisher struct{}

// PublishBookingConfirmed does nothing
func (NoopBookingPublisher) PublishBookingConfirmed(context.Context, string, models.BookingRecord) error {
	return nil
}

// Close does nothing
func (NoopBookingPublisher) Close() error { return nil }
