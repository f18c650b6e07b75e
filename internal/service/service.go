package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ved-panchal/fcarena-2.0/internal/form"
	"github.com/Ved-panchal/fcarena-2.0/internal/workflows"
	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
)

const workflowIDPrefix = "booking-session-"

var (
	// ErrSubmissionInFlight is returned while a submission is being processed
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	// ErrSessionNotFound is returned for unknown or closed sessions
	ErrSessionNotFound = errors.New("session not found")
)

// Catalog reads slots and persisted bookings
type Catalog interface {
	GetAvailableSlots(ctx context.Context, date string) ([]models.AvailableSlot, error)
	ListBookings(ctx context.Context, date string) ([]models.BookingRecord, error)
}

// BookingService defines the booking service interface
type BookingService interface {
	GetAvailableSlots(ctx context.Context, date string) ([]models.AvailableSlot, error)
	ListBookings(ctx context.Context, date string) ([]models.BookingRecord, error)
	StartSession(ctx context.Context) (*workflows.SessionState, error)
	GetSession(ctx context.Context, sessionID string) (*workflows.SessionState, error)
	UpdateForm(ctx context.Context, sessionID string, req models.SetFormFieldRequest) error
	Submit(ctx context.Context, sessionID string) error
	CompletePayment(ctx context.Context, sessionID string, result models.PaymentResult) error
	ApplyRedirectOutcome(ctx context.Context, sessionID string, outcome models.RedirectOutcomeSignal) error
	CloseSession(ctx context.Context, sessionID string) error
}

// Config controls how sessions are started
type Config struct {
	TaskQueue     string
	PaymentWindow time.Duration
	IdleTimeout   time.Duration
}

// bookingServiceImpl implements BookingService
type bookingServiceImpl struct {
	temporalClient client.Client
	catalog        Catalog
	cfg            Config
}

// NewBookingService creates a new BookingService
func NewBookingService(temporalClient client.Client, catalog Catalog, cfg Config) BookingService {
	return &bookingServiceImpl{
		temporalClient: temporalClient,
		catalog:        catalog,
		cfg:            cfg,
	}
}

// WorkflowID returns the workflow id of a session
func WorkflowID(sessionID string) string {
	return workflowIDPrefix + sessionID
}

func (s *bookingServiceImpl) GetAvailableSlots(ctx context.Context, date string) ([]models.AvailableSlot, error) {
	return s.catalog.GetAvailableSlots(ctx, date)
}

func (s *bookingServiceImpl) ListBookings(ctx context.Context, date string) ([]models.BookingRecord, error) {
	return s.catalog.ListBookings(ctx, date)
}

func (s *bookingServiceImpl) StartSession(ctx context.Context) (*workflows.SessionState, error) {
	sessionID := uuid.New().String()

	workflowOptions := client.StartWorkflowOptions{
		ID:        WorkflowID(sessionID),
		TaskQueue: s.cfg.TaskQueue,
	}
	input := workflows.SessionInput{
		SessionID:     sessionID,
		PaymentWindow: s.cfg.PaymentWindow,
		IdleTimeout:   s.cfg.IdleTimeout,
	}

	if _, err := s.temporalClient.ExecuteWorkflow(ctx, workflowOptions, workflows.BookingSessionWorkflow, input); err != nil {
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}

	return &workflows.SessionState{
		SessionID:   sessionID,
		Status:      models.SessionStatusIdle,
		Form:        form.New(),
		Notices:     []models.Notice{},
		LastUpdated: time.Now(),
	}, nil
}

func (s *bookingServiceImpl) GetSession(ctx context.Context, sessionID string) (*workflows.SessionState, error) {
	response, err := s.temporalClient.QueryWorkflow(ctx, WorkflowID(sessionID), "", models.QueryGetState)
	if err != nil {
		return nil, translate(err, "failed to query workflow")
	}

	var state workflows.SessionState
	if err := response.Get(&state); err != nil {
		return nil, fmt.Errorf("failed to decode workflow state: %w", err)
	}
	return &state, nil
}

func (s *bookingServiceImpl) UpdateForm(ctx context.Context, sessionID string, req models.SetFormFieldRequest) error {
	if err := s.ensureNotInFlight(ctx, sessionID); err != nil {
		return err
	}
	return s.signal(ctx, sessionID, models.SignalUpdateForm, req)
}

func (s *bookingServiceImpl) Submit(ctx context.Context, sessionID string) error {
	if err := s.ensureNotInFlight(ctx, sessionID); err != nil {
		return err
	}
	return s.signal(ctx, sessionID, models.SignalSubmit, nil)
}

func (s *bookingServiceImpl) CompletePayment(ctx context.Context, sessionID string, result models.PaymentResult) error {
	return s.signal(ctx, sessionID, models.SignalPaymentCompleted, result)
}

func (s *bookingServiceImpl) ApplyRedirectOutcome(ctx context.Context, sessionID string, outcome models.RedirectOutcomeSignal) error {
	return s.signal(ctx, sessionID, models.SignalRedirectOutcome, outcome)
}

func (s *bookingServiceImpl) CloseSession(ctx context.Context, sessionID string) error {
	return s.signal(ctx, sessionID, models.SignalCloseSession, nil)
}

// ensureNotInFlight rejects early so the caller gets a 409; the workflow
// enforces the same rule for signals that race past this check.
func (s *bookingServiceImpl) ensureNotInFlight(ctx context.Context, sessionID string) error {
	state, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if state.Status.InFlight() {
		return ErrSubmissionInFlight
	}
	return nil
}

func (s *bookingServiceImpl) signal(ctx context.Context, sessionID, name string, arg interface{}) error {
	if err := s.temporalClient.SignalWorkflow(ctx, WorkflowID(sessionID), "", name, arg); err != nil {
		return translate(err, "failed to signal workflow")
	}
	return nil
}

func translate(err error, msg string) error {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return ErrSessionNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
