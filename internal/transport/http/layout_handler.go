package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"labelcli/internal/config"
	apperrors "labelcli/internal/errors"
	"labelcli/internal/layout"
	"labelcli/internal/services"
)

// LayoutHandler handles layout computation requests
type LayoutHandler struct {
	service      services.LayoutService
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
}

// SettingsResponse lists the form defaults and the accepted choices
type SettingsResponse struct {
	Defaults     services.LayoutRequest `json:"defaults"`
	FontFamilies []string               `json:"font_families"`
	Geometry     layout.Geometry        `json:"geometry"`
	MinLines     int                    `json:"min_lines_per_label"`
	MaxLines     int                    `json:"max_lines_per_label"`
	MinFontSize  int                    `json:"min_font_size"`
}

// NewLayoutHandler creates a new layout handler
func NewLayoutHandler(service services.LayoutService, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *LayoutHandler {
	return &LayoutHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "layout")),
	}
}

// Routes returns the layout routes, mounted under /api/layout
func (h *LayoutHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/settings", h.GetSettings)
	r.Post("/", h.Compute)
	r.Post("/preview", h.Preview)
	return r
}

// GetSettings handles GET /api/layout/settings
func (h *LayoutHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SettingsResponse{
		Defaults:     h.service.DefaultRequest(),
		FontFamilies: layout.Families(),
		Geometry:     layout.Avery3658(),
		MinLines:     config.MinLinesPerLabel,
		MaxLines:     config.MaxLinesPerLabel,
		MinFontSize:  layout.MinFontSize,
	})
}

// Compute handles POST /api/layout
func (h *LayoutHandler) Compute(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.service.Compute(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Preview handles POST /api/layout/preview
func (h *LayoutHandler) Preview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	page, err := h.service.Preview(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// decode reads the body over the configured defaults so omitted fields keep them
func (h *LayoutHandler) decode(w http.ResponseWriter, r *http.Request) (services.LayoutRequest, bool) {
	req := h.service.DefaultRequest()
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return req, false
	}
	return req, true
}
