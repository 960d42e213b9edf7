package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"labelcli/internal/config"
	"labelcli/internal/infrastructure"
	"labelcli/internal/layout"
	"labelcli/internal/textsource"
)

// LayoutService defines the interface for layout operations
type LayoutService interface {
	DefaultRequest() LayoutRequest
	Compute(ctx context.Context, req LayoutRequest) (*layout.Result, error)
	Preview(ctx context.Context, req LayoutRequest) (*layout.Page, error)
}

// LayoutRequest carries the label text and the form settings. Lines wins
// over Text when both are given. Padding values are millimetres.
type LayoutRequest struct {
	Lines            []string `json:"lines,omitempty"`
	Text             string   `json:"text,omitempty"`
	LinesPerLabel    int      `json:"lines_per_label" validate:"min=1,max=6"`
	FontFamily       string   `json:"font_family" validate:"required,font_family"`
	Bold             bool     `json:"bold"`
	UniversalPadding float64  `json:"universal_padding" validate:"gte=0"`
	LeftColumnExtra  float64  `json:"left_column_extra" validate:"gte=0"`
	RightColumnExtra float64  `json:"right_column_extra" validate:"gte=0"`
	VerticalPadding  float64  `json:"vertical_padding" validate:"gte=0"`
	StartSize        int      `json:"start_size,omitempty" validate:"omitempty,min=6,max=72"`
}

// Settings converts the form values to engine settings
func (r LayoutRequest) Settings() layout.Settings {
	return layout.Settings{
		LinesPerLabel: r.LinesPerLabel,
		FontFamily:    r.FontFamily,
		Bold:          r.Bold,
		Padding: layout.PaddingPolicy{
			Universal:        r.UniversalPadding,
			LeftColumnExtra:  r.LeftColumnExtra,
			RightColumnExtra: r.RightColumnExtra,
			Vertical:         r.VerticalPadding,
		},
		StartSize: r.StartSize,
	}
}

// InputLines returns Lines, or Text split into lines
func (r LayoutRequest) InputLines() []string {
	if len(r.Lines) > 0 {
		return r.Lines
	}
	return textsource.ParseText(r.Text)
}

type layoutService struct {
	engine    *layout.Engine
	defaults  config.LayoutConfig
	validator *Validator
	metrics   *infrastructure.LabelMetrics
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewLayoutService creates a layout service. metrics may be nil.
func NewLayoutService(engine *layout.Engine, defaults config.LayoutConfig, metrics *infrastructure.LabelMetrics, logger *slog.Logger) LayoutService {
	if logger == nil {
		logger = slog.Default()
	}
	return &layoutService{
		engine:    engine,
		defaults:  defaults,
		validator: NewValidator(),
		metrics:   metrics,
		tracer:    otel.Tracer(infrastructure.MeterName),
		logger:    logger.With(slog.String("service", "layout")),
	}
}

// DefaultRequest returns a request holding the configured form defaults.
// Handlers decode into it so omitted fields keep their default.
func (s *layoutService) DefaultRequest() LayoutRequest {
	return LayoutRequest{
		LinesPerLabel:    s.defaults.LinesPerLabel,
		FontFamily:       s.defaults.FontFamily,
		Bold:             s.defaults.Bold,
		UniversalPadding: s.defaults.UniversalPadding,
		LeftColumnExtra:  s.defaults.LeftColumnExtra,
		RightColumnExtra: s.defaults.RightColumnExtra,
		VerticalPadding:  s.defaults.VerticalPadding,
	}
}

// Compute validates req and lays out every label
func (s *layoutService) Compute(ctx context.Context, req LayoutRequest) (*layout.Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "layout.compute")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	lines := req.InputLines()
	span.SetAttributes(
		attribute.Int("layout.lines", len(lines)),
		attribute.Int("layout.lines_per_label", req.LinesPerLabel),
		attribute.String("layout.font_family", req.FontFamily),
	)

	result, err := s.engine.Compute(lines, req.Settings())
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	elapsed := time.Since(start)
	s.record(ctx, "compute", result, elapsed)

	s.logger.InfoContext(ctx, "layout computed",
		slog.String("trace_id", requestTraceID(ctx)),
		slog.Int("lines", len(lines)),
		slog.Int("labels", result.LabelCount()),
		slog.Int("pages", len(result.Pages)),
		slog.Duration("duration", elapsed),
	)
	return result, nil
}

// Preview validates req and lays out the preview row
func (s *layoutService) Preview(ctx context.Context, req LayoutRequest) (*layout.Page, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "layout.preview")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	page, err := s.engine.Preview(req.InputLines(), req.Settings())
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	s.record(ctx, "preview", &layout.Result{Pages: []layout.Page{*page}}, time.Since(start))
	return page, nil
}

func (s *layoutService) record(ctx context.Context, kind string, result *layout.Result, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))

	s.metrics.LayoutComputations.Add(ctx, 1, attrs)
	s.metrics.LayoutDuration.Record(ctx, elapsed.Seconds(), attrs)
	if kind != "compute" {
		return
	}
	s.metrics.LabelsLaidOut.Add(ctx, int64(result.LabelCount()))
	s.metrics.PagesLaidOut.Add(ctx, int64(len(result.Pages)))
	for _, steps := range result.FitSteps() {
		s.metrics.FitSteps.Record(ctx, int64(steps))
	}
}
