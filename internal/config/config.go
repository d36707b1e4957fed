// Package config provides configuration loading for webtrackd.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file,
// then WEBTRACK_-prefixed environment variables. The file can additionally
// be watched for changes; see Watcher.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/webtrack/pkg/telemetry"
	"github.com/fyrsmithlabs/webtrack/pkg/tracking"
)

// Config holds the complete webtrackd configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Logging       LoggingConfig       `koanf:"logging"`
	Telemetry     TelemetryConfig     `koanf:"telemetry"`
	Tracking      TrackingConfig      `koanf:"tracking"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds the daemon's logging settings. Encoder and sampling
// details live in internal/logging; this selects level, format, and the
// OTEL bridge.
type LoggingConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	OTELOutput bool   `koanf:"otel_output"`
}

// TelemetryConfig holds the telemetry client settings, with the
// instrumentation key kept redactable.
type TelemetryConfig struct {
	InstrumentationKey Secret   `koanf:"instrumentation_key"`
	Transport          string   `koanf:"transport"`
	Endpoint           string   `koanf:"endpoint"`
	NATSURL            string   `koanf:"nats_url"`
	NATSSubject        string   `koanf:"nats_subject"`
	MaxBatchSize       int      `koanf:"max_batch_size"`
	FlushInterval      Duration `koanf:"flush_interval"`
	BufferSize         int      `koanf:"buffer_size"`
	MaxRetries         int      `koanf:"max_retries"`
	RequestTimeout     Duration `koanf:"request_timeout"`
}

// TrackingConfig holds the request-tracking module settings.
type TrackingConfig struct {
	W3CEnabled          bool `koanf:"w3c_enabled"`
	EnableW3CBackCompat bool `koanf:"enable_w3c_back_compat"`
}

// ObservabilityConfig holds daemon-side metrics settings.
type ObservabilityConfig struct {
	ServiceName    string     `koanf:"service_name"`
	ServiceVersion string     `koanf:"service_version"`
	Prometheus     bool       `koanf:"prometheus"`
	OTLP           OTLPConfig `koanf:"otlp"`
}

// OTLPConfig controls the optional OTLP gRPC metric exporter.
type OTLPConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Endpoint       string   `koanf:"endpoint"`
	Insecure       bool     `koanf:"insecure"`
	ExportInterval Duration `koanf:"export_interval"`
}

// NewDefaultConfig returns config with production-ready defaults.
// The instrumentation key has no default and must be provided.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8600,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Transport:      telemetry.TransportHTTP,
			Endpoint:       "http://localhost:8600/v1/track",
			NATSURL:        "nats://localhost:4222",
			NATSSubject:    "webtrack.requests",
			MaxBatchSize:   100,
			FlushInterval:  Duration(5 * time.Second),
			BufferSize:     1024,
			MaxRetries:     3,
			RequestTimeout: Duration(10 * time.Second),
		},
		Tracking: TrackingConfig{
			W3CEnabled:          false,
			EnableW3CBackCompat: true,
		},
		Observability: ObservabilityConfig{
			ServiceName:    "webtrackd",
			ServiceVersion: "0.1.0",
			Prometheus:     true,
			OTLP: OTLPConfig{
				Enabled:        false,
				Endpoint:       "localhost:4317",
				Insecure:       true,
				ExportInterval: Duration(15 * time.Second),
			},
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("server shutdown_timeout must be positive")
	}

	if err := c.Telemetry.Client().Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if c.Telemetry.Transport == telemetry.TransportNATS && c.Telemetry.NATSURL == "" {
		return fmt.Errorf("telemetry: nats_url is required for the nats transport")
	}

	if c.Observability.OTLP.Enabled {
		if c.Observability.OTLP.Endpoint == "" {
			return fmt.Errorf("observability: otlp endpoint required when enabled")
		}
		if c.Observability.OTLP.ExportInterval.Duration() <= 0 {
			return fmt.Errorf("observability: otlp export_interval must be positive")
		}
	}

	return nil
}

// Client converts the telemetry section into the client configuration.
func (t *TelemetryConfig) Client() *telemetry.Configuration {
	return &telemetry.Configuration{
		InstrumentationKey: t.InstrumentationKey.Value(),
		Transport:          t.Transport,
		Endpoint:           t.Endpoint,
		NATSSubject:        t.NATSSubject,
		MaxBatchSize:       t.MaxBatchSize,
		FlushInterval:      t.FlushInterval.Duration(),
		BufferSize:         t.BufferSize,
		MaxRetries:         t.MaxRetries,
		RequestTimeout:     t.RequestTimeout.Duration(),
	}
}

// ModuleOptions renders the tracking section as the string option map the
// tracking module is constructed from.
func (t *TrackingConfig) ModuleOptions() map[string]string {
	return map[string]string{
		tracking.OptionW3CEnabled:          fmt.Sprintf("%t", t.W3CEnabled),
		tracking.OptionEnableW3CBackCompat: fmt.Sprintf("%t", t.EnableW3CBackCompat),
	}
}
