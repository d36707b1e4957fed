package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/nats-io/nats.go"
)

// Transmitter delivers a batch of records to a collector.
//
// Transmit must not retain the batch after it returns.
type Transmitter interface {
	Transmit(ctx context.Context, batch []*Request) error
}

// envelope is the wire form of one record.
type envelope struct {
	InstrumentationKey string    `json:"ikey"`
	Time               time.Time `json:"time"`
	Data               *Request  `json:"data"`
}

func envelopes(ikey string, batch []*Request) []envelope {
	out := make([]envelope, 0, len(batch))
	for _, req := range batch {
		out = append(out, envelope{
			InstrumentationKey: ikey,
			Time:               req.Timestamp,
			Data:               req,
		})
	}
	return out
}

// HTTPTransmitter posts record batches as JSON to a collector endpoint.
//
// Connection errors and 5xx responses are retried with exponential backoff
// up to MaxRetries times.
type HTTPTransmitter struct {
	client   *retryablehttp.Client
	endpoint string
	ikey     string
}

// NewHTTPTransmitter creates a transmitter for the configured endpoint.
func NewHTTPTransmitter(cfg *Configuration) (*HTTPTransmitter, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.HTTPClient.Timeout = cfg.RequestTimeout
	rc.Logger = nil

	return &HTTPTransmitter{
		client:   rc,
		endpoint: cfg.Endpoint,
		ikey:     cfg.InstrumentationKey,
	}, nil
}

// Transmit posts the batch and fails on any non-2xx response.
func (t *HTTPTransmitter) Transmit(ctx context.Context, batch []*Request) error {
	body, err := json.Marshal(envelopes(t.ikey, batch))
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}
	return nil
}

// NATSTransmitter publishes each record as one JSON message on a subject.
type NATSTransmitter struct {
	conn    *nats.Conn
	subject string
	ikey    string
}

// NewNATSTransmitter creates a transmitter publishing on conn.
//
// The caller owns the connection and closes it after the channel using this
// transmitter is closed.
func NewNATSTransmitter(conn *nats.Conn, subject, ikey string) (*NATSTransmitter, error) {
	if conn == nil {
		return nil, fmt.Errorf("nats connection is required")
	}
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	return &NATSTransmitter{
		conn:    conn,
		subject: subject,
		ikey:    ikey,
	}, nil
}

// Transmit publishes one message per record and flushes the connection.
func (t *NATSTransmitter) Transmit(ctx context.Context, batch []*Request) error {
	for _, req := range batch {
		data, err := json.Marshal(envelope{
			InstrumentationKey: t.ikey,
			Time:               req.Timestamp,
			Data:               req,
		})
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		if err := t.conn.Publish(t.subject, data); err != nil {
			return fmt.Errorf("publish record: %w", err)
		}
	}

	if err := t.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush connection: %w", err)
	}
	return nil
}
