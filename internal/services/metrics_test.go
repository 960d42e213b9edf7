package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"labelcli/internal/infrastructure"
)

// newTestMetrics returns instruments backed by a manual reader so tests can
// inspect what was recorded.
func newTestMetrics(t *testing.T) (*infrastructure.LabelMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := infrastructure.CreateLabelMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return metrics, reader
}

// counterValue sums the data points of an int64 counter, optionally
// restricted to points carrying result=want.
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name, want string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if want != "" {
					v, _ := dp.Attributes.Value(attribute.Key("result"))
					if v.AsString() != want {
						continue
					}
				}
				total += dp.Value
			}
		}
	}
	return total
}
