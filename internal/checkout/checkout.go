// Package checkout prepares the hosted checkout for a submitted booking and
// presents outcome notices to the customer's browser.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"go.uber.org/zap"
)

// EventPublisher delivers session events to the browser
type EventPublisher interface {
	Publish(ctx context.Context, event models.SessionEvent) error
}

// Branding is the merchant presentation shown in the hosted checkout
type Branding struct {
	Name          string
	Description   string
	Image         string
	ThemeColor    string
	AddressNote   string
	PublicBaseURL string
}

// CallbackURL is where the in-page completion callback posts the signed result
func (b Branding) CallbackURL(sessionID string) string {
	return strings.TrimRight(b.PublicBaseURL, "/") + "/api/sessions/" + sessionID + "/payment"
}

// BuildOptions binds a created order and the submitted draft into checkout options
func BuildOptions(b Branding, sessionID, key string, order models.PaymentOrder, draft models.BookingDraft) models.CheckoutOptions {
	opts := models.CheckoutOptions{
		Key:         key,
		Amount:      order.Amount,
		Currency:    models.CurrencyINR,
		Name:        b.Name,
		Description: b.Description,
		Image:       b.Image,
		OrderID:     order.ID,
		Prefill: models.CheckoutPrefill{
			Name:    draft.Name,
			Contact: draft.Contact,
		},
		Theme:       models.CheckoutTheme{Color: b.ThemeColor},
		CallbackURL: b.CallbackURL(sessionID),
	}
	if b.AddressNote != "" {
		opts.Notes = map[string]string{"address": b.AddressNote}
	}
	return opts
}

// Launcher opens the hosted checkout in the customer's browser
type Launcher struct {
	publisher EventPublisher
	logger    *zap.Logger
}

// NewLauncher creates a Launcher
func NewLauncher(publisher EventPublisher, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{publisher: publisher, logger: logger}
}

// Launch pushes the checkout options to the session. The result of the
// payment arrives later through the completion callback.
func (l *Launcher) Launch(ctx context.Context, sessionID string, opts models.CheckoutOptions, at int64) error {
	if opts.OrderID == "" || opts.Key == "" {
		return fmt.Errorf("checkout options incomplete for session %s", sessionID)
	}
	err := l.publisher.Publish(ctx, models.SessionEvent{
		Type:      models.SessionEventCheckoutReady,
		SessionID: sessionID,
		Checkout:  &opts,
		Timestamp: at,
	})
	if err != nil {
		return fmt.Errorf("failed to launch checkout: %w", err)
	}
	l.logger.Info("checkout launched", zap.String("sessionId", sessionID), zap.String("orderId", opts.OrderID))
	return nil
}
