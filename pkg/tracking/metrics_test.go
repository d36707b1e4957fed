package tracking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_Counters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	m := NewMetrics(nil)
	ctx := context.Background()

	m.RecordTracked(ctx)
	m.RecordTracked(ctx)
	m.RecordDropped(ctx, "OnEndRequest")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			sum, ok := metric.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[metric.Name] += dp.Value
			}
		}
	}

	assert.Equal(t, int64(2), sums["webtrack.tracking.records_tracked_total"])
	assert.Equal(t, int64(1), sums["webtrack.tracking.records_dropped_total"])
}

func TestMetrics_NilInstrumentsAreSafe(t *testing.T) {
	m := &Metrics{}
	assert.NotPanics(t, func() {
		m.RecordTracked(context.Background())
		m.RecordDropped(context.Background(), "OnBeginRequest")
	})
}
