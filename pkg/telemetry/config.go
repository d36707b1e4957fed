package telemetry

import (
	"fmt"
	"strings"
	"time"
)

// Supported delivery transports.
const (
	TransportHTTP = "http"
	TransportNATS = "nats"
)

// Configuration holds telemetry client settings.
type Configuration struct {
	// InstrumentationKey identifies the telemetry resource records belong
	// to. Required.
	InstrumentationKey string `koanf:"instrumentation_key"`

	// Transport selects the delivery transport, "http" or "nats".
	Transport string `koanf:"transport"`

	// Endpoint is the collector URL for the HTTP transport.
	Endpoint string `koanf:"endpoint"`

	// NATSSubject is the subject records are published to on the NATS
	// transport.
	NATSSubject string `koanf:"nats_subject"`

	// MaxBatchSize is the number of records transmitted per batch.
	MaxBatchSize int `koanf:"max_batch_size"`

	// FlushInterval bounds how long a record waits in the buffer.
	FlushInterval time.Duration `koanf:"flush_interval"`

	// BufferSize is the channel buffer capacity. Send fails once full.
	BufferSize int `koanf:"buffer_size"`

	// MaxRetries bounds HTTP delivery retries per batch.
	MaxRetries int `koanf:"max_retries"`

	// RequestTimeout bounds a single HTTP delivery attempt.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// NewDefaultConfiguration returns production-ready client defaults.
// The instrumentation key has no default and must be set.
func NewDefaultConfiguration() *Configuration {
	return &Configuration{
		Transport:      TransportHTTP,
		Endpoint:       "http://localhost:8600/v1/track",
		NATSSubject:    "webtrack.requests",
		MaxBatchSize:   100,
		FlushInterval:  5 * time.Second,
		BufferSize:     1024,
		MaxRetries:     3,
		RequestTimeout: 10 * time.Second,
	}
}

// Validate checks configuration for errors.
func (c *Configuration) Validate() error {
	if strings.TrimSpace(c.InstrumentationKey) == "" {
		return fmt.Errorf("instrumentation_key is required")
	}

	switch c.Transport {
	case TransportHTTP:
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint is required for the http transport")
		}
	case TransportNATS:
		if c.NATSSubject == "" {
			return fmt.Errorf("nats_subject is required for the nats transport")
		}
	default:
		return fmt.Errorf("transport must be %q or %q, got %q", TransportHTTP, TransportNATS, c.Transport)
	}

	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive")
	}

	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush_interval must be positive")
	}

	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be positive")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}

	return nil
}
