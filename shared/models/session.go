package models

import "time"

// SessionStatus is the position of a form session in the booking workflow
type SessionStatus string

const (
	SessionStatusIdle            SessionStatus = "idle"
	SessionStatusSubmitted       SessionStatus = "submitted"
	SessionStatusAwaitingPayment SessionStatus = "awaiting_payment"
	SessionStatusVerifying       SessionStatus = "verifying"
	SessionStatusSucceeded       SessionStatus = "succeeded"
	SessionStatusFailed          SessionStatus = "failed"
)

// IsTerminal reports whether the current submission has finished
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusSucceeded || s == SessionStatusFailed
}

// InFlight reports whether a submission is being processed
func (s SessionStatus) InFlight() bool {
	switch s {
	case SessionStatusSubmitted, SessionStatusAwaitingPayment, SessionStatusVerifying:
		return true
	}
	return false
}

// FormField names an editable field of the booking form
type FormField string

const (
	FieldName     FormField = "name"
	FieldContact  FormField = "contact"
	FieldDate     FormField = "date"
	FieldTimeSlot FormField = "timeSlot"
)

// Valid reports whether f names a form field
func (f FormField) Valid() bool {
	switch f {
	case FieldName, FieldContact, FieldDate, FieldTimeSlot:
		return true
	}
	return false
}

// ErrorKind tags why a submission failed or a side effect went wrong
type ErrorKind string

const (
	ErrorKindValidation      ErrorKind = "validation"
	ErrorKindOrderInitiation ErrorKind = "order_initiation"
	ErrorKindCheckoutLaunch  ErrorKind = "checkout_launch"
	ErrorKindVerification    ErrorKind = "verification"
	ErrorKindPaymentDeclined ErrorKind = "payment_declined"
	ErrorKindPaymentTimeout  ErrorKind = "payment_timeout"
	ErrorKindRedirectFailure ErrorKind = "redirect_failure"
	ErrorKindPersistence     ErrorKind = "persistence"
	ErrorKindNotification    ErrorKind = "notification"
)

// NoticeStatus is the severity of a user-facing notice
type NoticeStatus string

const (
	NoticeSuccess NoticeStatus = "success"
	NoticeError   NoticeStatus = "error"
	NoticeWarning NoticeStatus = "warning"
)

// Notice is a transient message shown to the customer
type Notice struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      NoticeStatus `json:"status"`
	DurationMS  int64        `json:"duration"`
	Kind        ErrorKind    `json:"kind,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Signals for workflow communication
const (
	SignalUpdateForm       = "update_form"
	SignalSubmit           = "submit"
	SignalPaymentCompleted = "payment_completed"
	SignalRedirectOutcome  = "redirect_outcome"
	SignalCloseSession     = "close_session"
)

// RedirectOutcomeSignal carries the PaymentSuccess flag read on page load.
// OrderID names the order the payment page reported on, when it is known.
type RedirectOutcomeSignal struct {
	PaymentSuccess bool   `json:"paymentSuccess"`
	OrderID        string `json:"orderId,omitempty"`
}

// Queries for workflow state
const (
	QueryGetState = "get_state"
)

// SessionEventType identifies messages pushed to the browser
type SessionEventType string

const (
	SessionEventCheckoutReady SessionEventType = "checkout_ready"
	SessionEventNotice        SessionEventType = "notice"
)

// SessionEvent is published on the session channel and relayed over websocket
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	SessionID string           `json:"sessionId"`
	Checkout  *CheckoutOptions `json:"checkout,omitempty"`
	Notice    *Notice          `json:"notice,omitempty"`
	Timestamp int64            `json:"timestamp"`
}
