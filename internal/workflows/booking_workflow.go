package workflows

import (
	"errors"
	"fmt"
	"time"

	"github.com/Ved-panchal/fcarena-2.0/internal/activities"
	"github.com/Ved-panchal/fcarena-2.0/internal/checkout"
	"github.com/Ved-panchal/fcarena-2.0/internal/form"
	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// DefaultPaymentWindow is how long a launched checkout may stay open
	DefaultPaymentWindow = 15 * time.Minute
	// DefaultIdleTimeout closes a session that receives no signals
	DefaultIdleTimeout = 24 * time.Hour
	// ActivityTimeout bounds every remote call
	ActivityTimeout = 30 * time.Second
)

// SessionInput is the input for the booking session workflow
type SessionInput struct {
	SessionID     string        `json:"sessionId"`
	PaymentWindow time.Duration `json:"paymentWindow"`
	IdleTimeout   time.Duration `json:"idleTimeout"`
}

// SessionResult is the result of the booking session workflow
type SessionResult struct {
	SessionID   string               `json:"sessionId"`
	FinalStatus models.SessionStatus `json:"finalStatus"`
	Submissions int                  `json:"submissions"`
	Rejected    int                  `json:"rejected"`
	Bookings    int                  `json:"bookings"`
	CloseReason string               `json:"closeReason"`
}

// SessionState is returned by the get_state query
type SessionState struct {
	SessionID       string                  `json:"sessionId"`
	Status          models.SessionStatus    `json:"status"`
	Form            *form.State             `json:"form"`
	Submitted       *models.BookingDraft    `json:"submitted,omitempty"`
	Order           *models.PaymentOrder    `json:"order,omitempty"`
	Checkout        *models.CheckoutOptions `json:"checkout,omitempty"`
	PaymentDeadline *time.Time              `json:"paymentDeadline,omitempty"`
	Booking         *models.BookingRecord   `json:"booking,omitempty"`
	Notices         []models.Notice         `json:"notices"`
	FailureKind     models.ErrorKind        `json:"failureKind,omitempty"`
	FailureReason   string                  `json:"failureReason,omitempty"`
	Submissions     int                     `json:"submissions"`
	Rejected        int                     `json:"rejected"`
	Bookings        int                     `json:"bookings"`
	LastUpdated     time.Time               `json:"lastUpdated"`
}

// LatestNotice returns the most recent notice, if any
func (s *SessionState) LatestNotice() *models.Notice {
	if len(s.Notices) == 0 {
		return nil
	}
	n := s.Notices[len(s.Notices)-1]
	return &n
}

// a is used to reference activity methods by name; the worker registers the real instance
var a *activities.Activities

// session holds the workflow-local state and the contexts used to run activities
type session struct {
	ctx    workflow.Context
	logger log.Logger
	input  SessionInput
	state  SessionState
}

// BookingSessionWorkflow drives one booking form from data entry through
// payment to the outcome notice. Each submission runs
// Submitted -> AwaitingPayment -> Verifying -> Succeeded | Failed.
func BookingSessionWorkflow(ctx workflow.Context, input SessionInput) (*SessionResult, error) {
	if input.PaymentWindow <= 0 {
		input.PaymentWindow = DefaultPaymentWindow
	}
	if input.IdleTimeout <= 0 {
		input.IdleTimeout = DefaultIdleTimeout
	}

	logger := workflow.GetLogger(ctx)
	logger.Info("Booking session started", "sessionId", input.SessionID)

	// Remote failures end the submission, so activities are never retried
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: ActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	s := &session{
		ctx:    ctx,
		logger: logger,
		input:  input,
		state: SessionState{
			SessionID:   input.SessionID,
			Status:      models.SessionStatusIdle,
			Form:        form.New(),
			Notices:     []models.Notice{},
			LastUpdated: workflow.Now(ctx),
		},
	}

	err := workflow.SetQueryHandler(ctx, models.QueryGetState, func() (SessionState, error) {
		return s.snapshot(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register query handler: %w", err)
	}

	updateCh := workflow.GetSignalChannel(ctx, models.SignalUpdateForm)
	submitCh := workflow.GetSignalChannel(ctx, models.SignalSubmit)
	paymentCh := workflow.GetSignalChannel(ctx, models.SignalPaymentCompleted)
	redirectCh := workflow.GetSignalChannel(ctx, models.SignalRedirectOutcome)
	closeCh := workflow.GetSignalChannel(ctx, models.SignalCloseSession)

	var closeReason string
	for closeReason == "" {
		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		selector := workflow.NewSelector(ctx)

		selector.AddReceive(updateCh, func(c workflow.ReceiveChannel, more bool) {
			var req models.SetFormFieldRequest
			c.Receive(ctx, &req)
			s.updateForm(req)
		})

		selector.AddReceive(submitCh, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, nil)
			s.submit()
		})

		selector.AddReceive(paymentCh, func(c workflow.ReceiveChannel, more bool) {
			var result models.PaymentResult
			c.Receive(ctx, &result)
			s.paymentCompleted(result)
		})

		selector.AddReceive(redirectCh, func(c workflow.ReceiveChannel, more bool) {
			var outcome models.RedirectOutcomeSignal
			c.Receive(ctx, &outcome)
			s.redirectOutcome(outcome)
		})

		selector.AddReceive(closeCh, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, nil)
			closeReason = "closed"
		})

		if s.state.Status == models.SessionStatusAwaitingPayment && s.state.PaymentDeadline != nil {
			wait := s.state.PaymentDeadline.Sub(workflow.Now(ctx))
			if wait <= 0 {
				wait = time.Millisecond
			}
			selector.AddFuture(workflow.NewTimer(timerCtx, wait), func(f workflow.Future) {
				if f.Get(ctx, nil) != nil {
					return
				}
				logger.Info("Payment window elapsed", "sessionId", input.SessionID)
				s.fail(models.ErrorKindPaymentTimeout, "payment window elapsed")
			})
		} else {
			selector.AddFuture(workflow.NewTimer(timerCtx, input.IdleTimeout), func(f workflow.Future) {
				if f.Get(ctx, nil) != nil {
					return
				}
				closeReason = "idle"
			})
		}

		selector.Select(ctx)
		cancelTimer()
	}

	logger.Info("Booking session closed", "sessionId", input.SessionID, "reason", closeReason,
		"submissions", s.state.Submissions, "bookings", s.state.Bookings)

	return &SessionResult{
		SessionID:   input.SessionID,
		FinalStatus: s.state.Status,
		Submissions: s.state.Submissions,
		Rejected:    s.state.Rejected,
		Bookings:    s.state.Bookings,
		CloseReason: closeReason,
	}, nil
}

func (s *session) snapshot() SessionState {
	st := s.state
	st.Form = s.state.Form.Clone()
	st.Notices = append([]models.Notice{}, s.state.Notices...)
	return st
}

func (s *session) touch() {
	s.state.LastUpdated = workflow.Now(s.ctx)
}

func (s *session) updateForm(req models.SetFormFieldRequest) {
	defer s.touch()

	if s.state.Status.InFlight() {
		s.state.Rejected++
		s.logger.Warn("Form update rejected while submission in flight", "field", req.Field, "status", s.state.Status)
		return
	}

	if err := s.state.Form.Set(req.Field, req.Value); err != nil {
		s.logger.Warn("Ignoring form update", "field", req.Field, "error", err)
		return
	}

	if req.Field != models.FieldDate {
		return
	}
	if req.Value == "" {
		s.state.Form.SetAvailableSlots(nil)
		return
	}

	var slots []models.AvailableSlot
	if err := workflow.ExecuteActivity(s.ctx, a.GetAvailableSlots, req.Value).Get(s.ctx, &slots); err != nil {
		s.logger.Error("Failed to load available slots", "date", req.Value, "error", err)
		slots = nil
	}
	// A later date change may have been applied while slots were loading
	if s.state.Form.Draft.Date == req.Value {
		s.state.Form.SetAvailableSlots(slots)
	}
}

func (s *session) submit() {
	defer s.touch()

	if s.state.Status.InFlight() {
		s.state.Rejected++
		s.logger.Warn("Submission rejected while another is in flight", "status", s.state.Status)
		return
	}

	draft, err := s.state.Form.Submit()
	if err != nil {
		s.logger.Info("Submission failed validation", "alerts", len(s.state.Form.Alerts))
		return
	}

	s.state.Submissions++
	s.state.Status = models.SessionStatusSubmitted
	s.state.Submitted = &draft
	s.state.Order = nil
	s.state.Checkout = nil
	s.state.PaymentDeadline = nil
	s.state.Booking = nil
	s.state.FailureKind = ""
	s.state.FailureReason = ""
	s.logger.Info("Booking submitted", "date", draft.Date, "timeSlot", draft.TimeSlot, "amount", draft.Price)

	var key string
	if err := workflow.ExecuteActivity(s.ctx, a.FetchPaymentKey).Get(s.ctx, &key); err != nil {
		s.fail(models.ErrorKindOrderInitiation, errorReason(err))
		return
	}

	var order models.PaymentOrder
	if err := workflow.ExecuteActivity(s.ctx, a.CreatePaymentOrder, draft.Price).Get(s.ctx, &order); err != nil {
		s.fail(models.ErrorKindOrderInitiation, errorReason(err))
		return
	}
	s.state.Order = &order

	var opts models.CheckoutOptions
	err = workflow.ExecuteActivity(s.ctx, a.LaunchCheckout, activities.LaunchCheckoutInput{
		SessionID: s.input.SessionID,
		Key:       key,
		Order:     order,
		Draft:     draft,
	}).Get(s.ctx, &opts)
	if err != nil {
		s.fail(models.ErrorKindCheckoutLaunch, errorReason(err))
		return
	}

	deadline := workflow.Now(s.ctx).Add(s.input.PaymentWindow)
	s.state.Checkout = &opts
	s.state.PaymentDeadline = &deadline
	s.state.Status = models.SessionStatusAwaitingPayment
	s.logger.Info("Awaiting payment", "orderId", order.ID, "deadline", deadline)
}

func (s *session) paymentCompleted(result models.PaymentResult) {
	defer s.touch()

	if s.state.Status != models.SessionStatusAwaitingPayment {
		s.logger.Warn("Ignoring payment completion", "status", s.state.Status, "orderId", result.OrderID)
		return
	}

	s.state.Status = models.SessionStatusVerifying
	if s.state.Order == nil || result.OrderID != s.state.Order.ID {
		s.fail(models.ErrorKindVerification, "payment result does not match the launched order")
		return
	}

	var verified bool
	if err := workflow.ExecuteActivity(s.ctx, a.VerifyPayment, result).Get(s.ctx, &verified); err != nil {
		s.fail(models.ErrorKindVerification, errorReason(err))
		return
	}
	if !verified {
		s.fail(models.ErrorKindPaymentDeclined, "payment was not verified")
		return
	}
	s.succeed()
}

func (s *session) redirectOutcome(outcome models.RedirectOutcomeSignal) {
	defer s.touch()

	// A reloaded return URL may name an order from an earlier submission
	if outcome.OrderID != "" && (s.state.Order == nil || s.state.Order.ID != outcome.OrderID) {
		s.logger.Warn("Ignoring redirect outcome for another order", "orderId", outcome.OrderID, "status", s.state.Status)
		return
	}

	if !outcome.PaymentSuccess {
		s.fail(models.ErrorKindRedirectFailure, "payment page reported failure")
		return
	}

	if s.state.Status != models.SessionStatusAwaitingPayment {
		s.logger.Warn("Ignoring redirect success without an outstanding order", "status", s.state.Status)
		return
	}
	s.logger.Info("Redirect reported payment success", "orderId", s.state.Order.ID)
	s.succeed()
}

func (s *session) succeed() {
	s.state.Status = models.SessionStatusSucceeded
	s.state.PaymentDeadline = nil
	draft := *s.state.Submitted

	var warnings []models.ErrorKind

	var rec models.BookingRecord
	err := workflow.ExecuteActivity(s.ctx, a.PersistBooking, activities.PersistBookingInput{
		SessionID: s.input.SessionID,
		Draft:     draft,
	}).Get(s.ctx, &rec)
	if err != nil {
		s.logger.Error("Booking not persisted after verified payment", "error", err)
		warnings = append(warnings, models.ErrorKindPersistence)
	} else {
		s.state.Booking = &rec
		s.state.Bookings++
	}

	if err := workflow.ExecuteActivity(s.ctx, a.SendConfirmation, draft).Get(s.ctx, nil); err != nil {
		s.logger.Warn("Confirmation not sent", "error", err)
		warnings = append(warnings, models.ErrorKindNotification)
	}

	s.state.Form.Reset()
	s.present(checkout.SuccessNotice())
	for _, kind := range warnings {
		s.present(checkout.WarningNotice(kind))
	}
	s.logger.Info("Booking succeeded", "date", draft.Date, "timeSlot", draft.TimeSlot)
}

func (s *session) fail(kind models.ErrorKind, reason string) {
	s.state.Status = models.SessionStatusFailed
	s.state.PaymentDeadline = nil
	s.state.FailureKind = kind
	s.state.FailureReason = reason
	s.logger.Warn("Booking failed", "kind", kind, "reason", reason)
	s.present(checkout.ErrorNotice(kind))
}

func (s *session) present(notice models.Notice) {
	notice.CreatedAt = workflow.Now(s.ctx)
	s.state.Notices = append(s.state.Notices, notice)

	err := workflow.ExecuteActivity(s.ctx, a.PresentOutcome, activities.PresentOutcomeInput{
		SessionID: s.input.SessionID,
		Notice:    notice,
	}).Get(s.ctx, nil)
	if err != nil {
		s.logger.Warn("Notice not delivered", "status", notice.Status, "error", err)
	}
}

// errorReason unwraps activity errors down to the message of the remote failure
func errorReason(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	return err.Error()
}
