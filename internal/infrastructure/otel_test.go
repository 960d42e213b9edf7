package infrastructure

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"labelcli/internal/config"
)

func TestInitializeOTelServesLabelMetrics(t *testing.T) {
	var buf bytes.Buffer
	providers, err := InitializeOTel(config.TelemetryConfig{EnableMetrics: true, Environment: "test"}, NewLogger(&buf, "info"))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	m, err := CreateLabelMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	m.LayoutComputations.Add(ctx, 1)
	m.LicenseValidations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "valid")))

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "labelcli_layout_computations_total")
	assert.Contains(t, rec.Body.String(), `result="valid"`)
}

func TestInitializeOTelDisabled(t *testing.T) {
	var buf bytes.Buffer
	providers, err := InitializeOTel(config.TelemetryConfig{}, NewLogger(&buf, "info"))
	require.NoError(t, err)

	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.TracerProvider)

	// No-op instruments still work.
	m, err := CreateLabelMetrics(providers.Meter)
	require.NoError(t, err)
	m.PagesLaidOut.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTelRejectsUnknownExporter(t *testing.T) {
	var buf bytes.Buffer
	_, err := InitializeOTel(config.TelemetryConfig{EnableTracing: true, TraceExporter: "zipkin"}, NewLogger(&buf, "info"))
	assert.ErrorContains(t, err, "unsupported trace exporter")
}

func TestTraceIDFromContextWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
	RecordError(context.Background(), assert.AnError)
}
