package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"labelcli/internal/config"
)

const (
	ServiceName = "labelprinter"
	MeterName   = "labelcli"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing and metrics according to the telemetry config.
// Disabled signals fall back to no-op implementations so callers never nil-check.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", ServiceName),
		slog.String("version", config.AppVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res := createResource(cfg)

	providers := &OTelProviders{
		Tracer: otel.Tracer(MeterName),
		Meter:  noop.NewMeterProvider().Meter(MeterName),
		PrometheusHTTP: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics disabled", http.StatusNotFound)
		}),
		Logger: logger,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

func createResource(cfg config.TelemetryConfig) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)
}

func initializeTracing(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized", slog.String("exporter", cfg.TraceExporter))
	return nil
}

// initializeMetrics wires the OTel Prometheus exporter to a private registry
// so repeated initialization (tests, restarts) never collides on the default one.
func initializeMetrics(ctx context.Context, res *resource.Resource, providers *OTelProviders) error {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
	providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	otel.SetMeterProvider(mp)

	providers.Logger.InfoContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// LabelMetrics holds the application-specific instruments
type LabelMetrics struct {
	LayoutComputations metric.Int64Counter
	LabelsLaidOut      metric.Int64Counter
	PagesLaidOut       metric.Int64Counter
	FitSteps           metric.Int64Histogram
	LayoutDuration     metric.Float64Histogram

	LicenseValidations metric.Int64Counter
	LicenseSearchDays  metric.Int64Histogram
	ActivationAttempts metric.Int64Counter

	WorkbookImports metric.Int64Counter
}

// CreateLabelMetrics registers the layout and license instruments on meter
func CreateLabelMetrics(meter metric.Meter) (*LabelMetrics, error) {
	m := &LabelMetrics{}
	var err error

	if m.LayoutComputations, err = meter.Int64Counter("labelcli_layout_computations_total",
		metric.WithDescription("Number of layout computations")); err != nil {
		return nil, fmt.Errorf("layout computations counter: %w", err)
	}
	if m.LabelsLaidOut, err = meter.Int64Counter("labelcli_labels_total",
		metric.WithDescription("Number of labels placed on pages")); err != nil {
		return nil, fmt.Errorf("labels counter: %w", err)
	}
	if m.PagesLaidOut, err = meter.Int64Counter("labelcli_pages_total",
		metric.WithDescription("Number of pages produced")); err != nil {
		return nil, fmt.Errorf("pages counter: %w", err)
	}
	if m.FitSteps, err = meter.Int64Histogram("labelcli_font_fit_steps",
		metric.WithDescription("Font sizes tried before a fit was accepted"),
		metric.WithExplicitBucketBoundaries(1, 2, 4, 8, 16, 32)); err != nil {
		return nil, fmt.Errorf("fit steps histogram: %w", err)
	}
	if m.LayoutDuration, err = meter.Float64Histogram("labelcli_layout_duration_seconds",
		metric.WithDescription("Layout computation duration"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("layout duration histogram: %w", err)
	}
	if m.LicenseValidations, err = meter.Int64Counter("labelcli_license_validations_total",
		metric.WithDescription("License key validations by result")); err != nil {
		return nil, fmt.Errorf("license validations counter: %w", err)
	}
	if m.LicenseSearchDays, err = meter.Int64Histogram("labelcli_license_search_days",
		metric.WithDescription("Days scanned before a key matched"),
		metric.WithExplicitBucketBoundaries(1, 30, 90, 180, 365, 730)); err != nil {
		return nil, fmt.Errorf("license search histogram: %w", err)
	}
	if m.ActivationAttempts, err = meter.Int64Counter("labelcli_activation_attempts_total",
		metric.WithDescription("License activation attempts by result")); err != nil {
		return nil, fmt.Errorf("activation counter: %w", err)
	}
	if m.WorkbookImports, err = meter.Int64Counter("labelcli_workbook_imports_total",
		metric.WithDescription("Spreadsheet imports by result")); err != nil {
		return nil, fmt.Errorf("workbook imports counter: %w", err)
	}

	return m, nil
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
