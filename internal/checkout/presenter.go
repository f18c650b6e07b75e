package checkout

import (
	"context"
	"fmt"

	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"go.uber.org/zap"
)

// NoticeDuration is how long a notice stays on screen, in milliseconds
const NoticeDuration int64 = 7000

// SuccessNotice is shown after a verified payment
func SuccessNotice() models.Notice {
	return models.Notice{
		Title:       "Booking Successful",
		Description: "Your booking has been confirmed.",
		Status:      models.NoticeSuccess,
		DurationMS:  NoticeDuration,
	}
}

// ErrorNotice is shown when a submission fails
func ErrorNotice(kind models.ErrorKind) models.Notice {
	return models.Notice{
		Title:       "Error",
		Description: "Something went wrong. Please try again.",
		Status:      models.NoticeError,
		DurationMS:  NoticeDuration,
		Kind:        kind,
	}
}

// WarningNotice reports a side effect that failed after the payment succeeded
func WarningNotice(kind models.ErrorKind) models.Notice {
	n := models.Notice{
		Title:      "Booking Confirmed",
		Status:     models.NoticeWarning,
		DurationMS: NoticeDuration,
		Kind:       kind,
	}
	switch kind {
	case models.ErrorKindPersistence:
		n.Description = "Your payment was received but the booking could not be saved. Please contact us."
	case models.ErrorKindNotification:
		n.Description = "Your booking is confirmed but we could not send the confirmation."
	default:
		n.Description = "Your booking is confirmed but something went wrong afterwards."
	}
	return n
}

// Presenter shows outcome notices in the customer's browser
type Presenter struct {
	publisher EventPublisher
	logger    *zap.Logger
}

// NewPresenter creates a Presenter
func NewPresenter(publisher EventPublisher, logger *zap.Logger) *Presenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Presenter{publisher: publisher, logger: logger}
}

// Present publishes a notice to the session
func (p *Presenter) Present(ctx context.Context, sessionID string, notice models.Notice) error {
	err := p.publisher.Publish(ctx, models.SessionEvent{
		Type:      models.SessionEventNotice,
		SessionID: sessionID,
		Notice:    &notice,
		Timestamp: notice.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to present notice: %w", err)
	}
	p.logger.Info("notice presented",
		zap.String("sessionId", sessionID),
		zap.String("status", string(notice.Status)),
		zap.String("kind", string(notice.Kind)))
	return nil
}
