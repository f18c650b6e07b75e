// Package activities holds the remote effects of a form session, run by the
// worker on behalf of BookingSessionWorkflow.
package activities

import (
	"context"
	"fmt"

	"github.com/Ved-panchal/fcarena-2.0/internal/checkout"
	"github.com/Ved-panchal/fcarena-2.0/internal/events"
	"github.com/Ved-panchal/fcarena-2.0/internal/form"
	"github.com/Ved-panchal/fcarena-2.0/internal/metrics"
	"github.com/Ved-panchal/fcarena-2.0/internal/notify"
	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// SlotProvider lists bookable times for a date
type SlotProvider interface {
	GetAvailableSlots(ctx context.Context, date string) ([]models.AvailableSlot, error)
}

// OrderInitiator obtains the checkout key and creates payment orders
type OrderInitiator interface {
	GetKey(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, amount float64) (*models.PaymentOrder, error)
}

// PaymentVerifier checks a signed payment result
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, result models.PaymentResult) (bool, error)
}

// BookingStore persists finalized bookings
type BookingStore interface {
	CreateBooking(ctx context.Context, rec *models.BookingRecord) error
}

// CheckoutLauncher opens the hosted checkout for a session
type CheckoutLauncher interface {
	Launch(ctx context.Context, sessionID string, opts models.CheckoutOptions, at int64) error
}

// OutcomePresenter shows a notice to the customer
type OutcomePresenter interface {
	Present(ctx context.Context, sessionID string, notice models.Notice) error
}

// Activities contains all booking session activities
type Activities struct {
	slots     SlotProvider
	orders    OrderInitiator
	verifier  PaymentVerifier
	bookings  BookingStore
	events    events.BookingPublisher
	notifier  notify.Sender
	launcher  CheckoutLauncher
	presenter OutcomePresenter
	branding  checkout.Branding
	metrics   *metrics.BookingMetrics
}

// Deps wires the collaborators of Activities
type Deps struct {
	Slots     SlotProvider
	Orders    OrderInitiator
	Verifier  PaymentVerifier
	Bookings  BookingStore
	Events    events.BookingPublisher
	Notifier  notify.Sender
	Launcher  CheckoutLauncher
	Presenter OutcomePresenter
	Branding  checkout.Branding
	Metrics   *metrics.BookingMetrics
}

// NewActivities creates a new Activities instance
func NewActivities(d Deps) *Activities {
	ev := d.Events
	if ev == nil {
		ev = events.NoopBookingPublisher{}
	}
	return &Activities{
		slots:     d.Slots,
		orders:    d.Orders,
		verifier:  d.Verifier,
		bookings:  d.Bookings,
		events:    ev,
		notifier:  d.Notifier,
		launcher:  d.Launcher,
		presenter: d.Presenter,
		branding:  d.Branding,
		metrics:   d.Metrics,
	}
}

// LaunchCheckoutInput is the input of LaunchCheckout
type LaunchCheckoutInput struct {
	SessionID string
	Key       string
	Order     models.PaymentOrder
	Draft     models.BookingDraft
}

// PersistBookingInput is the input of PersistBooking
type PersistBookingInput struct {
	SessionID string
	Draft     models.BookingDraft
}

// PresentOutcomeInput is the input of PresentOutcome
type PresentOutcomeInput struct {
	SessionID string
	Notice    models.Notice
}

// GetAvailableSlots loads the bookable times for a date
func (a *Activities) GetAvailableSlots(ctx context.Context, date string) ([]models.AvailableSlot, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Loading available slots", "date", date)

	slots, err := a.slots.GetAvailableSlots(ctx, date)
	if err != nil {
		a.metrics.ObserveActivityFailure("GetAvailableSlots")
		return nil, fmt.Errorf("failed to load slots for %s: %w", date, err)
	}
	return slots, nil
}

// FetchPaymentKey obtains the public checkout key
func (a *Activities) FetchPaymentKey(ctx context.Context) (string, error) {
	key, err := a.orders.GetKey(ctx)
	if err != nil {
		activity.GetLogger(ctx).Error("Failed to fetch payment key", "error", err)
		a.metrics.ObserveActivityFailure("FetchPaymentKey")
		return "", err
	}
	return key, nil
}

// CreatePaymentOrder creates a payment order for the slot price
func (a *Activities) CreatePaymentOrder(ctx context.Context, amount float64) (*models.PaymentOrder, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Creating payment order", "amount", amount)

	order, err := a.orders.CreateOrder(ctx, amount)
	if err != nil {
		logger.Error("Failed to create payment order", "error", err)
		a.metrics.ObserveActivityFailure("CreatePaymentOrder")
		return nil, err
	}

	logger.Info("Payment order created", "orderID", order.ID)
	return order, nil
}

// LaunchCheckout builds the checkout options for an order and opens the hosted checkout
func (a *Activities) LaunchCheckout(ctx context.Context, in LaunchCheckoutInput) (*models.CheckoutOptions, error) {
	logger := activity.GetLogger(ctx)

	opts := checkout.BuildOptions(a.branding, in.SessionID, in.Key, in.Order, in.Draft)
	at := activity.GetInfo(ctx).StartedTime.UnixMilli()
	if err := a.launcher.Launch(ctx, in.SessionID, opts, at); err != nil {
		logger.Error("Failed to launch checkout", "sessionID", in.SessionID, "error", err)
		a.metrics.ObserveActivityFailure("LaunchCheckout")
		return nil, err
	}

	logger.Info("Checkout launched", "sessionID", in.SessionID, "orderID", opts.OrderID)
	return &opts, nil
}

// VerifyPayment checks the signed completion payload
func (a *Activities) VerifyPayment(ctx context.Context, result models.PaymentResult) (bool, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Verifying payment", "orderID", result.OrderID, "paymentID", result.PaymentID)

	ok, err := a.verifier.VerifyPayment(ctx, result)
	if err != nil {
		logger.Error("Payment verification failed", "orderID", result.OrderID, "error", err)
		a.metrics.ObserveActivityFailure("VerifyPayment")
		return false, err
	}
	if !ok {
		logger.Warn("Payment declined", "orderID", result.OrderID)
	}
	return ok, nil
}

// PersistBooking writes the booking record for a verified payment and
// announces it on the bookings topic
func (a *Activities) PersistBooking(ctx context.Context, in PersistBookingInput) (*models.BookingRecord, error) {
	logger := activity.GetLogger(ctx)

	rec := form.Record(in.Draft)
	if err := a.bookings.CreateBooking(ctx, &rec); err != nil {
		logger.Error("Failed to persist booking", "sessionID", in.SessionID, "error", err)
		a.metrics.ObserveActivityFailure("PersistBooking")
		return nil, temporal.NewNonRetryableApplicationError("booking not persisted", "PersistenceError", err)
	}
	a.metrics.ObserveBooking()
	logger.Info("Booking persisted", "bookingID", rec.ID, "date", rec.Date, "timeSlot", rec.TimeSlot)

	if err := a.events.PublishBookingConfirmed(ctx, in.SessionID, rec); err != nil {
		logger.Warn("Failed to publish booking event", "bookingID", rec.ID, "error", err)
	}
	return &rec, nil
}

// SendConfirmation notifies the customer about a confirmed booking
func (a *Activities) SendConfirmation(ctx context.Context, draft models.BookingDraft) error {
	logger := activity.GetLogger(ctx)

	if err := a.notifier.SendConfirmation(ctx, form.Confirmation(draft)); err != nil {
		logger.Warn("Confirmation not sent", "recipient", draft.Contact, "error", err)
		a.metrics.ObserveActivityFailure("SendConfirmation")
		return temporal.NewNonRetryableApplicationError("confirmation not sent", "NotificationError", err)
	}

	logger.Info("Confirmation sent", "recipient", draft.Contact)
	return nil
}

// PresentOutcome shows a notice to the customer
func (a *Activities) PresentOutcome(ctx context.Context, in PresentOutcomeInput) error {
	a.metrics.ObserveNotice(string(in.Notice.Status), string(in.Notice.Kind))
	if err := a.presenter.Present(ctx, in.SessionID, in.Notice); err != nil {
		activity.GetLogger(ctx).Warn("Failed to present notice", "sessionID", in.SessionID, "error", err)
		return err
	}
	return nil
}
