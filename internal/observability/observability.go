// Package observability wires OpenTelemetry metrics for webtrackd.
//
// A single MeterProvider serves two readers: a Prometheus exporter backing
// the daemon's /metrics endpoint, and an optional periodic OTLP gRPC
// exporter for collector setups. The W3C trace-context propagator is
// registered globally so outbound instrumentation agrees with the tracking
// module's resolver.
//
// Failures degrade rather than crash: a provider that cannot be built
// leaves the globals on their no-op defaults and marks the instance
// degraded.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/fyrsmithlabs/webtrack/internal/config"
)

// Observability manages the daemon's meter provider and its exporters.
type Observability struct {
	cfg *config.ObservabilityConfig

	meterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry

	degraded atomic.Bool
}

// New builds the meter provider from configuration and installs it as the
// global provider, together with the W3C trace-context propagator.
func New(ctx context.Context, cfg *config.ObservabilityConfig) (*Observability, error) {
	o := &Observability{cfg: cfg}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.Prometheus {
		o.registry = prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(o.registry))
		if err != nil {
			o.degraded.Store(true)
			return o, fmt.Errorf("create prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(exporter))
	}

	if cfg.OTLP.Enabled {
		exporter, err := newOTLPExporter(ctx, &cfg.OTLP)
		if err != nil {
			o.degraded.Store(true)
			return o, fmt.Errorf("create otlp metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.OTLP.ExportInterval.Duration()))))
	}

	o.meterProvider = sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(o.meterProvider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return o, nil
}

func newOTLPExporter(ctx context.Context, cfg *config.OTLPConfig) (sdkmetric.Exporter, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	return otlpmetricgrpc.New(ctx, opts...)
}

// Meter returns a meter for the given instrumentation scope.
func (o *Observability) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if o == nil || o.meterProvider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return o.meterProvider.Meter(name, opts...)
}

// PrometheusHandler returns the /metrics handler, or nil when the
// Prometheus exporter is disabled.
func (o *Observability) PrometheusHandler() http.Handler {
	if o == nil || o.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// Degraded reports whether provider construction failed partway.
func (o *Observability) Degraded() bool {
	return o != nil && o.degraded.Load()
}

// ForceFlush immediately exports pending metrics.
func (o *Observability) ForceFlush(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.ForceFlush(ctx)
}

// Shutdown flushes and stops the meter provider.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}

	var errs []error
	if err := o.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
	}
	return errors.Join(errs...)
}
