package mocks

import (
	"context"

	"github.com/Ved-panchal/fcarena-2.0/internal/workflows"
	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"github.com/stretchr/testify/mock"
)

// MockBookingService is a mock implementation of BookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) GetAvailableSlots(ctx context.Context, date string) ([]models.AvailableSlot, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AvailableSlot), args.Error(1)
}

func (m *MockBookingService) ListBookings(ctx context.Context, date string) ([]models.BookingRecord, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookingRecord), args.Error(1)
}

func (m *MockBookingService) StartSession(ctx context.Context) (*workflows.SessionState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflows.SessionState), args.Error(1)
}

func (m *MockBookingService) GetSession(ctx context.Context, sessionID string) (*workflows.SessionState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflows.SessionState), args.Error(1)
}

func (m *MockBookingService) UpdateForm(ctx context.Context, sessionID string, req models.SetFormFieldRequest) error {
	args := m.Called(ctx, sessionID, req)
	return args.Error(0)
}

func (m *MockBookingService) Submit(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockBookingService) CompletePayment(ctx context.Context, sessionID string, result models.PaymentResult) error {
	args := m.Called(ctx, sessionID, result)
	return args.Error(0)
}

func (m *MockBookingService) ApplyRedirectOutcome(ctx context.Context, sessionID string, outcome models.RedirectOutcomeSignal) error {
	args := m.Called(ctx, sessionID, outcome)
	return args.Error(0)
}

func (m *MockBookingService) CloseSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
