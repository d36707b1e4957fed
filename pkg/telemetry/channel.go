package telemetry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrChannelClosed is returned by Send after the channel is closed.
	ErrChannelClosed = errors.New("telemetry channel closed")

	// ErrBufferFull is returned by Send when the buffer has no capacity left.
	ErrBufferFull = errors.New("telemetry buffer full")
)

// transmitTimeout bounds one batch delivery including retries.
const transmitTimeout = 30 * time.Second

// Channel queues finished records for delivery to a collector.
//
// Implementations must be safe for concurrent use.
type Channel interface {
	// Send queues one record. It must not block on network I/O.
	Send(req *Request) error

	// Flush delivers all queued records, blocking until done or ctx expires.
	Flush(ctx context.Context) error

	// Close flushes queued records and stops the channel. Send after Close
	// returns ErrChannelClosed.
	Close(ctx context.Context) error
}

// InMemoryChannel buffers records in memory and transmits them in batches.
//
// A background worker drains the buffer every FlushInterval, or as soon as
// MaxBatchSize records are pending. Transmit failures are logged and the
// batch is dropped.
type InMemoryChannel struct {
	transmitter   Transmitter
	logger        *zap.Logger
	maxBatchSize  int
	flushInterval time.Duration

	queue   chan *Request
	flushCh chan chan error
	stopCh  chan struct{}
	doneCh  chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool
}

// NewInMemoryChannel creates a channel delivering through transmitter and
// starts its background worker.
func NewInMemoryChannel(cfg *Configuration, transmitter Transmitter, logger *zap.Logger) *InMemoryChannel {
	if logger == nil {
		logger = zap.NewNop()
	}

	ch := &InMemoryChannel{
		transmitter:   transmitter,
		logger:        logger,
		maxBatchSize:  cfg.MaxBatchSize,
		flushInterval: cfg.FlushInterval,
		queue:         make(chan *Request, cfg.BufferSize),
		flushCh:       make(chan chan error, 1),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}

	go ch.run()
	return ch
}

// Send queues one record without blocking.
func (ch *InMemoryChannel) Send(req *Request) error {
	if ch.closed.Load() {
		return ErrChannelClosed
	}
	select {
	case ch.queue <- req:
		return nil
	default:
		return ErrBufferFull
	}
}

// Flush delivers everything queued so far.
func (ch *InMemoryChannel) Flush(ctx context.Context) error {
	if ch.closed.Load() {
		return ErrChannelClosed
	}

	ack := make(chan error, 1)
	select {
	case ch.flushCh <- ack:
	case <-ch.doneCh:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker after a final drain of the buffer.
func (ch *InMemoryChannel) Close(ctx context.Context) error {
	ch.closeOnce.Do(func() {
		ch.closed.Store(true)
		close(ch.stopCh)
	})

	select {
	case <-ch.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the channel worker. It owns the batch slice.
func (ch *InMemoryChannel) run() {
	defer close(ch.doneCh)

	ticker := time.NewTicker(ch.flushInterval)
	defer ticker.Stop()

	batch := make([]*Request, 0, ch.maxBatchSize)

	for {
		select {
		case req := <-ch.queue:
			batch = append(batch, req)
			if len(batch) >= ch.maxBatchSize {
				ch.transmit(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				ch.transmit(batch)
				batch = batch[:0]
			}

		case ack := <-ch.flushCh:
			batch = ch.drain(batch)
			var err error
			if len(batch) > 0 {
				err = ch.transmit(batch)
				batch = batch[:0]
			}
			ack <- err

		case <-ch.stopCh:
			batch = ch.drain(batch)
			if len(batch) > 0 {
				ch.transmit(batch)
			}
			return
		}
	}
}

// drain pulls everything immediately available from the queue, transmitting
// full batches along the way.
func (ch *InMemoryChannel) drain(batch []*Request) []*Request {
	for {
		select {
		case req := <-ch.queue:
			batch = append(batch, req)
			if len(batch) >= ch.maxBatchSize {
				ch.transmit(batch)
				batch = batch[:0]
			}
		default:
			return batch
		}
	}
}

// transmit delivers one batch. Failed batches are dropped.
func (ch *InMemoryChannel) transmit(batch []*Request) error {
	ctx, cancel := context.WithTimeout(context.Background(), transmitTimeout)
	defer cancel()

	if err := ch.transmitter.Transmit(ctx, batch); err != nil {
		ch.logger.Error("telemetry batch dropped",
			zap.Int("records", len(batch)),
			zap.Error(err))
		return err
	}
	return nil
}
