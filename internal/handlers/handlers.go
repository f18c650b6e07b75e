package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Ved-panchal/fcarena-2.0/internal/service"
	"github.com/Ved-panchal/fcarena-2.0/internal/workflows"
	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"github.com/gorilla/mux"
)

// RedirectOutcomeReader extracts the payment outcome the hosted payment page
// appends to the return URL. ok is false when the request carries none.
type RedirectOutcomeReader func(r *http.Request) (outcome models.RedirectOutcomeSignal, ok bool)

// QueryRedirectOutcome reads the PaymentSuccess query parameter and the
// optional razorpay_order_id the outcome refers to
func QueryRedirectOutcome(r *http.Request) (models.RedirectOutcomeSignal, bool) {
	q := r.URL.Query()
	outcome := models.RedirectOutcomeSignal{OrderID: q.Get("razorpay_order_id")}
	switch q.Get("PaymentSuccess") {
	case "true":
		outcome.PaymentSuccess = true
	case "false":
	default:
		return models.RedirectOutcomeSignal{}, false
	}
	return outcome, true
}

// SessionResponse is returned when a form session is started
type SessionResponse struct {
	SessionID string                  `json:"sessionId"`
	State     *workflows.SessionState `json:"state"`
}

// Handler contains HTTP handlers for the API
type Handler struct {
	bookingService service.BookingService
	readRedirect   RedirectOutcomeReader
}

// NewHandler creates a new Handler instance
func NewHandler(bookingService service.BookingService, readRedirect RedirectOutcomeReader) *Handler {
	if readRedirect == nil {
		readRedirect = QueryRedirectOutcome
	}
	return &Handler{
		bookingService: bookingService,
		readRedirect:   readRedirect,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, service.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func validDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// GetSlots handles GET /api/slots?date=YYYY-MM-DD
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if !validDate(date) {
		respondError(w, http.StatusBadRequest, "A date in YYYY-MM-DD format is required")
		return
	}

	slots, err := h.bookingService.GetAvailableSlots(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load slots")
		return
	}
	respondJSON(w, http.StatusOK, slots)
}

// ListBookings handles GET /api/bookings?date=YYYY-MM-DD
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if !validDate(date) {
		respondError(w, http.StatusBadRequest, "A date in YYYY-MM-DD format is required")
		return
	}

	bookings, err := h.bookingService.ListBookings(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load bookings")
		return
	}
	respondJSON(w, http.StatusOK, bookings)
}

// CreateSession handles POST /api/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.bookingService.StartSession(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, SessionResponse{SessionID: state.SessionID, State: state})
}

// GetSession handles GET /api/sessions/{id}. A PaymentSuccess query
// parameter is replayed into the session before its state is read. The
// query sees the status the signal set; notices from the activities it
// starts may still be pending and reach the client over the websocket.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if outcome, ok := h.readRedirect(r); ok {
		if err := h.bookingService.ApplyRedirectOutcome(r.Context(), sessionID, outcome); err != nil {
			respondServiceError(w, err)
			return
		}
	}

	state, err := h.bookingService.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// UpdateForm handles PATCH /api/sessions/{id}/form
func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req models.SetFormFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Field.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown form field")
		return
	}

	if err := h.bookingService.UpdateForm(r.Context(), sessionID, req); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Form updated"})
}

// Submit handles POST /api/sessions/{id}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := h.bookingService.Submit(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Submission accepted"})
}

// CompletePayment handles POST /api/sessions/{id}/payment, the completion
// callback of the hosted checkout. Both JSON and form-encoded bodies are accepted.
func (h *Handler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var result models.PaymentResult
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		result = models.PaymentResult{
			PaymentID: r.PostForm.Get("razorpay_payment_id"),
			OrderID:   r.PostForm.Get("razorpay_order_id"),
			Signature: r.PostForm.Get("razorpay_signature"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if result.PaymentID == "" || result.OrderID == "" || result.Signature == "" {
		respondError(w, http.StatusBadRequest, "Payment id, order id and signature are required")
		return
	}

	if err := h.bookingService.CompletePayment(r.Context(), sessionID, result); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Payment received"})
}

// CloseSession handles DELETE /api/sessions/{id}
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := h.bookingService.CloseSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Session closed"})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
