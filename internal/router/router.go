package router

import (
	"net/http"

	"github.com/Ved-panchal/fcarena-2.0/internal/handlers"
	"github.com/Ved-panchal/fcarena-2.0/internal/metrics"
	"github.com/Ved-panchal/fcarena-2.0/internal/middleware"
	"github.com/Ved-panchal/fcarena-2.0/internal/websocket"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Options configures the cross-cutting middleware
type Options struct {
	AllowedOrigin  string
	TrustedProxies middleware.TrustedProxies
	SubmitLimiter  *middleware.RateLimiter
	Metrics        *metrics.HTTPMetrics
	Logger         *zap.Logger
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(h *handlers.Handler, hub *websocket.Hub, opts Options) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.RequestLogger(opts.Logger, opts.Metrics, opts.TrustedProxies))
	r.Use(middleware.CORS(opts.AllowedOrigin))

	// API routes
	api := r.PathPrefix("/api").Subrouter()

	// Slots and bookings
	api.HandleFunc("/slots", h.GetSlots).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/bookings", h.ListBookings).Methods(http.MethodGet, http.MethodOptions)

	// Form sessions
	api.HandleFunc("/sessions", h.CreateSession).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}", h.GetSession).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/sessions/{id}", h.CloseSession).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/form", h.UpdateForm).Methods(http.MethodPatch, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/payment", h.CompletePayment).Methods(http.MethodPost, http.MethodOptions)

	var submit http.Handler = http.HandlerFunc(h.Submit)
	if opts.SubmitLimiter != nil {
		submit = opts.SubmitLimiter.Middleware(submit)
	}
	api.Handle("/sessions/{id}/submit", submit).Methods(http.MethodPost, http.MethodOptions)

	// WebSocket for checkout and notice events
	if hub != nil {
		api.HandleFunc("/sessions/{id}/ws", hub.ServeWS).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return r
}
