// Package fakes provides in-memory collaborators for activity and workflow tests.
package fakes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Ved-panchal/fcarena-2.0/shared/models"
)

// ErrUnavailable is returned by fakes configured to fail
var ErrUnavailable = errors.New("service unavailable")

// Slots serves slots from a map keyed by date
type Slots struct {
	mu     sync.Mutex
	ByDate map[string][]models.AvailableSlot
	Err    error
	Calls  []string
}

// GetAvailableSlots implements activities.SlotProvider
func (s *Slots) GetAvailableSlots(_ context.Context, date string) ([]models.AvailableSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, date)
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]models.AvailableSlot{}, s.ByDate[date]...), nil
}

// Orders hands out sequential order ids
type Orders struct {
	mu       sync.Mutex
	Key      string
	KeyErr   error
	OrderErr error
	Amounts  []float64
	KeyCalls int
}

// GetKey implements activities.OrderInitiator
func (o *Orders) GetKey(context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.KeyCalls++
	if o.KeyErr != nil {
		return "", o.KeyErr
	}
	return o.Key, nil
}

// CreateOrder implements activities.OrderInitiator
func (o *Orders) CreateOrder(_ context.Context, amount float64) (*models.PaymentOrder, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.OrderErr != nil {
		return nil, o.OrderErr
	}
	o.Amounts = append(o.Amounts, amount)
	return &models.PaymentOrder{
		ID:       fmt.Sprintf("order_%d", len(o.Amounts)),
		Amount:   amount,
		Currency: models.CurrencyINR,
	}, nil
}

// OrderCount returns how many orders were created
func (o *Orders) OrderCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.Amounts)
}

// Verifier returns a fixed verdict
type Verifier struct {
	mu      sync.Mutex
	Success bool
	Err     error
	Results []models.PaymentResult
}

// VerifyPayment implements activities.PaymentVerifier
func (v *Verifier) VerifyPayment(_ context.Context, result models.PaymentResult) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Results = append(v.Results, result)
	if v.Err != nil {
		return false, v.Err
	}
	return v.Success, nil
}

// Bookings stores records in memory
type Bookings struct {
	mu      sync.Mutex
	Err     error
	Records []models.BookingRecord
}

// CreateBooking implements activities.BookingStore
func (b *Bookings) CreateBooking(_ context.Context, rec *models.BookingRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	rec.ID = fmt.Sprintf("booking-%d", len(b.Records)+1)
	b.Records = append(b.Records, *rec)
	return nil
}

// All returns a copy of the stored records
func (b *Bookings) All() []models.BookingRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.BookingRecord{}, b.Records...)
}

// Notifier records confirmation requests
type Notifier struct {
	mu   sync.Mutex
	Err  error
	Sent []models.ConfirmationRequest
}

// SendConfirmation implements notify.Sender
func (n *Notifier) SendConfirmation(_ context.Context, req models.ConfirmationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, req)
	return nil
}

// All returns a copy of the sent requests
func (n *Notifier) All() []models.ConfirmationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.ConfirmationRequest{}, n.Sent...)
}

// SessionEvents records published session events
type SessionEvents struct {
	mu     sync.Mutex
	Err    error
	Events []models.SessionEvent
}

// Publish implements checkout.EventPublisher
func (s *SessionEvents) Publish(_ context.Context, e models.SessionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Events = append(s.Events, e)
	return nil
}

// Notices returns the notices published so far
func (s *SessionEvents) Notices() []models.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notice
	for _, e := range s.Events {
		if e.Notice != nil {
			out = append(out, *e.Notice)
		}
	}
	return out
}

// BookingEvents records booking.confirmed events
type BookingEvents struct {
	mu       sync.Mutex
	Err      error
	Bookings []models.BookingRecord
}

// PublishBookingConfirmed implements events.BookingPublisher
func (b *BookingEvents) PublishBookingConfirmed(_ context.Context, _ string, rec models.BookingRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.Bookings = append(b.Bookings, rec)
	return nil
}

// Close implements events.BookingPublisher
func (b *BookingEvents) Close() error { return nil }
