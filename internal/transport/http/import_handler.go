package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "labelcli/internal/errors"
	"labelcli/internal/services"
)

// ImportFormField is the multipart field carrying the workbook
const ImportFormField = "file"

// ImportHandler accepts spreadsheet uploads
type ImportHandler struct {
	service      services.ImportService
	errorHandler *apperrors.ErrorHandler
	maxUpload    int64
	logger       *slog.Logger
}

// NewImportHandler creates a new import handler accepting uploads up to maxUpload bytes
func NewImportHandler(service services.ImportService, maxUpload int64, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *ImportHandler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &ImportHandler{
		service:      service,
		errorHandler: errorHandler,
		maxUpload:    maxUpload,
		logger:       logger.With(slog.String("handler", "import")),
	}
}

// Routes returns the import routes, mounted under /api/import
func (h *ImportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ImportWorkbook)
	return r
}

// ImportWorkbook handles POST /api/import with a multipart "file" field
func (h *ImportHandler) ImportWorkbook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile(ImportFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, apperrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apperrors.ErrValidation(ImportFormField, "a workbook upload is required"))
		return
	}
	defer file.Close()

	h.logger.DebugContext(r.Context(), "workbook upload received",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
	)

	resp, err := h.service.ImportWorkbook(r.Context(), header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}
