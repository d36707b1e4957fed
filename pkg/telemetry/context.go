package telemetry

import (
	"context"
	"sync"
)

// RequestContext carries the telemetry record for an in-flight request
// together with correlation state collected while the request is handled.
//
// A RequestContext is created when tracking begins and travels with the
// request via context.Context. The record itself belongs to the request
// goroutine; the correlation scratch accessors are safe for concurrent use.
type RequestContext struct {
	request *Request

	mu         sync.Mutex
	baggage    map[string]string
	tracestate string
}

// NewRequestContext creates a context for the given in-flight record.
func NewRequestContext(req *Request) *RequestContext {
	return &RequestContext{
		request: req,
		baggage: make(map[string]string),
	}
}

// Request returns the record under construction.
func (rc *RequestContext) Request() *Request {
	return rc.request
}

// SetBaggage stores one correlation baggage pair from the caller.
func (rc *RequestContext) SetBaggage(key, value string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.baggage[key] = value
}

// Baggage returns a copy of the collected baggage pairs.
func (rc *RequestContext) Baggage() map[string]string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make(map[string]string, len(rc.baggage))
	for k, v := range rc.baggage {
		out[k] = v
	}
	return out
}

// SetTracestate records the incoming tracestate header value.
func (rc *RequestContext) SetTracestate(value string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.tracestate = value
}

// Tracestate returns the recorded tracestate header value.
func (rc *RequestContext) Tracestate() string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.tracestate
}

// requestContextCtxKey is the context key for RequestContext.
type requestContextCtxKey struct{}

// WithRequestContext stores the request context in ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextCtxKey{}, rc)
}

// RequestContextFrom extracts the request context, if present.
func RequestContextFrom(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(requestContextCtxKey{}).(*RequestContext)
	return rc, ok
}
