package telemetry

import (
	"context"
	"sync"
)

// CaptureChannel is a Channel that records everything sent through it.
// Intended for tests.
type CaptureChannel struct {
	mu      sync.Mutex
	sent    []*Request
	sendErr error
	closed  bool
}

// NewCaptureChannel creates an empty capture channel.
func NewCaptureChannel() *CaptureChannel {
	return &CaptureChannel{}
}

// Send records the request, or returns the error set via FailWith.
func (ch *CaptureChannel) Send(req *Request) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.sendErr != nil {
		return ch.sendErr
	}
	if ch.closed {
		return ErrChannelClosed
	}
	ch.sent = append(ch.sent, req)
	return nil
}

// Flush is a no-op.
func (ch *CaptureChannel) Flush(ctx context.Context) error {
	return nil
}

// Close marks the channel closed.
func (ch *CaptureChannel) Close(ctx context.Context) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.closed = true
	return nil
}

// FailWith makes subsequent Send calls return err. Pass nil to clear.
func (ch *CaptureChannel) FailWith(err error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.sendErr = err
}

// Requests returns a copy of all records sent so far.
func (ch *CaptureChannel) Requests() []*Request {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	out := make([]*Request, len(ch.sent))
	copy(out, ch.sent)
	return out
}

// Reset clears captured records.
func (ch *CaptureChannel) Reset() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.sent = nil
}
