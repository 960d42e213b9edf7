package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "labelcli/internal/errors"
	"labelcli/internal/services"
)

// LicenseHandler handles license-related HTTP requests
type LicenseHandler struct {
	service      services.LicenseService
	errorHandler *apperrors.ErrorHandler
	throttle     func(http.Handler) http.Handler
	notifiers    []LicenseNotifier
	logger       *slog.Logger
}

// LicenseNotifier is told about every successful activation
type LicenseNotifier interface {
	BroadcastLicense(status *services.LicenseStatusResponse)
}

// LicenseNotifierFunc adapts a function to LicenseNotifier
type LicenseNotifierFunc func(status *services.LicenseStatusResponse)

// BroadcastLicense calls f(status)
func (f LicenseNotifierFunc) BroadcastLicense(status *services.LicenseStatusResponse) {
	f(status)
}

// NewLicenseHandler creates a new license handler
func NewLicenseHandler(service services.LicenseService, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "license")),
	}
}

// WithThrottle wraps the activation endpoint, usually with a rate limiter,
// so keys cannot be guessed at speed
func (h *LicenseHandler) WithThrottle(mw func(http.Handler) http.Handler) *LicenseHandler {
	h.throttle = mw
	return h
}

// WithNotifier adds a receiver of activation events. Receivers are told in
// the order they were added.
func (h *LicenseHandler) WithNotifier(n LicenseNotifier) *LicenseHandler {
	h.notifiers = append(h.notifiers, n)
	return h
}

// Routes returns the license routes, mounted under /api/license
func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.GetStatus)

	r.Group(func(r chi.Router) {
		if h.throttle != nil {
			r.Use(h.throttle)
		}
		r.Post("/activate", h.Activate)
	})
	return r
}

// GetStatus handles GET /api/license/status
func (h *LicenseHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.GetStatus(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, status)
}

// Activate handles POST /api/license/activate
func (h *LicenseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req services.ActivationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	status, err := h.service.Activate(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "license activated via api",
		slog.String("email", status.Email),
		slog.String("expiry", status.Expiry),
		slog.String("trace_id", status.TraceID),
	)
	for _, n := range h.notifiers {
		n.BroadcastLicense(status)
	}
	render.JSON(w, r, status)
}
