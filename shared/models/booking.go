package models

import "time"

// CurrencyINR is the only currency the hosted checkout is opened with
const CurrencyINR = "INR"

// BookingDraft is the customer input collected by the booking form
type BookingDraft struct {
	Name     string  `json:"name"`
	Contact  string  `json:"contact"`
	Date     string  `json:"date"`
	TimeSlot string  `json:"timeSlot"`
	Price    float64 `json:"price"`
}

// AvailableSlot is a bookable time on a given date
type AvailableSlot struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

// PaymentOrder is created by the payment backend once per submission attempt
type PaymentOrder struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// PaymentResult is the signed completion payload produced by the hosted checkout
type PaymentResult struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// BookingRecord is a finalized booking, written only after a successful payment
type BookingRecord struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Date      string    `json:"date"`
	TimeSlot  string    `json:"timeSlot"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ConfirmationRequest is the payload handed to the notification service.
// Email carries the contact number; see notify.Sender.
type ConfirmationRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Message  string `json:"message"`
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
}

// CheckoutPrefill is shown pre-entered in the hosted checkout
type CheckoutPrefill struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact"`
}

// CheckoutTheme controls the hosted checkout colours
type CheckoutTheme struct {
	Color string `json:"color,omitempty"`
}

// CheckoutOptions are the parameters the browser opens the hosted checkout with
type CheckoutOptions struct {
	Key         string            `json:"key"`
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Image       string            `json:"image,omitempty"`
	OrderID     string            `json:"order_id"`
	Prefill     CheckoutPrefill   `json:"prefill"`
	Notes       map[string]string `json:"notes,omitempty"`
	Theme       CheckoutTheme     `json:"theme"`
	CallbackURL string            `json:"callback_url"`
}

// SetFormFieldRequest represents a single form field change
type SetFormFieldRequest struct {
	Field FormField `json:"field"`
	Value string    `json:"value"`
}
