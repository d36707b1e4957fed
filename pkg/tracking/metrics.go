package tracking

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/webtrack/pkg/tracking"

// Metrics counts tracked and dropped request records.
//
// Instrument creation failures degrade to nil instruments; recording
// through them is a no-op, never an error.
type Metrics struct {
	meter   metric.Meter
	logger  *zap.Logger
	tracked metric.Int64Counter
	dropped metric.Int64Counter
}

// NewMetrics creates metrics on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.tracked, err = m.meter.Int64Counter(
		"webtrack.tracking.records_tracked_total",
		metric.WithDescription("Request records handed to the telemetry client."),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		m.logger.Warn("failed to create tracked counter", zap.Error(err))
	}

	m.dropped, err = m.meter.Int64Counter(
		"webtrack.tracking.records_dropped_total",
		metric.WithDescription("Request records dropped by a failed lifecycle hook, labeled by hook."),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		m.logger.Warn("failed to create dropped counter", zap.Error(err))
	}
}

// RecordTracked counts one record handed to the client.
func (m *Metrics) RecordTracked(ctx context.Context) {
	if m.tracked != nil {
		m.tracked.Add(ctx, 1)
	}
}

// RecordDropped counts one record lost in the named hook.
func (m *Metrics) RecordDropped(ctx context.Context, hook string) {
	if m.dropped != nil {
		m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("hook", hook)))
	}
}
