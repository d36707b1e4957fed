package correlation

import (
	"net/http"

	"github.com/fyrsmithlabs/webtrack/pkg/telemetry"
)

// Correlation headers understood by the resolvers.
const (
	// RequestIDHeader carries the hierarchical caller span id.
	RequestIDHeader = "Request-Id"

	// CorrelationContextHeader carries comma-separated key=value baggage
	// pairs attached by the caller.
	CorrelationContextHeader = "Correlation-Context"

	// RequestContextHeader identifies the calling component. It is read
	// from the request to resolve the source and stamped on the response
	// so callers can identify this component in turn.
	RequestContextHeader = "Request-Context"

	// TracestateHeader is the W3C vendor-specific trace state.
	TracestateHeader = "tracestate"
)

// Resolver determines correlation identifiers for one tracked request.
//
// ResolveCorrelation runs when the request begins: it populates the
// record's ID, OperationID and ParentID from inbound headers and may stamp
// response headers identifying this component. ResolveSource runs when the
// request ends: it resolves the logical name of the caller from the inbound
// Request-Context header, using instrumentationKey to recognize (and skip)
// calls this component made to itself.
//
// Implementations read only their arguments and the shared Settings handle.
type Resolver interface {
	ResolveCorrelation(r *http.Request, w http.ResponseWriter, t *telemetry.Request) error
	ResolveSource(r *http.Request, t *telemetry.Request, instrumentationKey string) error
}
