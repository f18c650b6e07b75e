// Package notify delivers booking confirmations to customers.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"go.uber.org/zap"
)

// ConfirmationSubject is the subject line of every confirmation email
const ConfirmationSubject = "Turf Booking Confirmation"

// ErrUndeliverable is returned when the configured booking desk address is not an email address
var ErrUndeliverable = errors.New("notify: recipient is not a deliverable email address")

// Sender delivers a booking confirmation
type Sender interface {
	SendConfirmation(ctx context.Context, req models.ConfirmationRequest) error
}

// Message is a rendered email
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Mailer hands a rendered message to an email provider.
// Implementations can be swapped (SendGrid, SES, stub) without changing callers.
type Mailer interface {
	Deliver(ctx context.Context, msg Message) error
}

// Notifier renders confirmations and mails them to the booking desk.
// The customer is reached by phone: the request's Email field carries the
// contact number and is only quoted in the message.
type Notifier struct {
	mailer    Mailer
	recipient *mail.Address
	logger    *zap.Logger
}

var _ Sender = (*Notifier)(nil)

// NewNotifier creates a Notifier that delivers every confirmation to recipient
func NewNotifier(mailer Mailer, recipient string, logger *zap.Logger) (*Notifier, error) {
	if mailer == nil {
		return nil, errors.New("notify: mailer is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(recipient))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUndeliverable, recipient)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{mailer: mailer, recipient: addr, logger: logger}, nil
}

// SendConfirmation mails the booking details once to the booking desk
func (n *Notifier) SendConfirmation(ctx context.Context, req models.ConfirmationRequest) error {
	msg := Message{
		To:      n.recipient.Address,
		ToName:  n.recipient.Name,
		Subject: fmt.Sprintf("%s: %s %s", ConfirmationSubject, req.Date, req.TimeSlot),
		Body:    req.Message,
	}
	if err := n.mailer.Deliver(ctx, msg); err != nil {
		n.logger.Error("confirmation not delivered",
			zap.String("contact", req.Email),
			zap.String("date", req.Date),
			zap.String("timeSlot", req.TimeSlot),
			zap.Error(err))
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}
