package telemetry

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Client tracks finished request records and hands them to a channel.
//
// Construct with NewClient. All methods are safe for concurrent use.
type Client struct {
	cfg     *Configuration
	channel Channel
	logger  *zap.Logger
}

// NewClient creates a telemetry client.
//
// If channel is nil, an in-memory channel with an HTTP transmitter is
// built from the configuration. The NATS transport requires an explicit
// channel because the caller owns the connection; see NewNATSTransmitter.
func NewClient(cfg *Configuration, channel Channel, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if channel == nil {
		if cfg.Transport != TransportHTTP {
			return nil, fmt.Errorf("transport %q requires an explicit channel", cfg.Transport)
		}
		transmitter, err := NewHTTPTransmitter(cfg)
		if err != nil {
			return nil, fmt.Errorf("create http transmitter: %w", err)
		}
		channel = NewInMemoryChannel(cfg, transmitter, logger)
	}

	return &Client{
		cfg:     cfg,
		channel: channel,
		logger:  logger,
	}, nil
}

// Track queues one finished record for delivery.
//
// Returns an error when the channel rejects the record, for example when
// the buffer is full. The record must not be mutated after Track.
func (c *Client) Track(req *Request) error {
	if req == nil {
		return fmt.Errorf("request record is nil")
	}
	return c.channel.Send(req)
}

// InstrumentationKey returns the key records are tracked under.
func (c *Client) InstrumentationKey() string {
	return c.cfg.InstrumentationKey
}

// Channel returns the delivery channel.
func (c *Client) Channel() Channel {
	return c.channel
}

// Flush forces pending records out of the channel.
func (c *Client) Flush(ctx context.Context) error {
	return c.channel.Flush(ctx)
}

// Close flushes pending records and shuts down the delivery channel.
func (c *Client) Close(ctx context.Context) error {
	return c.channel.Close(ctx)
}
