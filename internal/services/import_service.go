package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	apperrors "labelcli/internal/errors"
	"labelcli/internal/infrastructure"
	"labelcli/internal/textsource"
)

// ImportService reads label text from uploaded spreadsheets
type ImportService interface {
	ImportWorkbook(ctx context.Context, filename string, r io.Reader) (*ImportResponse, error)
}

// ImportResponse is the first column of the imported sheet
type ImportResponse struct {
	Filename string   `json:"filename"`
	Lines    []string `json:"lines"`
	Count    int      `json:"count"`
}

type importService struct {
	metrics *infrastructure.LabelMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewImportService creates an import service. metrics may be nil.
func NewImportService(metrics *infrastructure.LabelMetrics, logger *slog.Logger) ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &importService{
		metrics: metrics,
		tracer:  otel.Tracer(infrastructure.MeterName),
		logger:  logger.With(slog.String("service", "import")),
	}
}

// ImportWorkbook returns the non-empty cells of the first column of the active sheet
func (s *importService) ImportWorkbook(ctx context.Context, filename string, r io.Reader) (*ImportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "import.workbook", trace.WithAttributes(attribute.String("import.filename", filename)))
	defer span.End()

	if !textsource.IsWorkbook(filename) {
		s.recordImport(ctx, "unsupported")
		return nil, fmt.Errorf("%s: %w", filename, apperrors.ErrUnsupportedWorkbook)
	}

	lines, err := textsource.ReadWorkbook(r)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		result := "error"
		switch {
		case errors.Is(err, apperrors.ErrNoData):
			result = "empty"
		case errors.Is(err, apperrors.ErrUnsupportedWorkbook):
			result = "unsupported"
		}
		s.recordImport(ctx, result)

		s.logger.WarnContext(ctx, "workbook import failed",
			slog.String("trace_id", requestTraceID(ctx)),
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.recordImport(ctx, "success")
	s.logger.InfoContext(ctx, "workbook imported",
		slog.String("trace_id", requestTraceID(ctx)),
		slog.String("filename", filename),
		slog.Int("lines", len(lines)),
	)

	return &ImportResponse{Filename: filename, Lines: lines, Count: len(lines)}, nil
}

func (s *importService) recordImport(ctx context.Context, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.WorkbookImports.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
