package correlation

import (
	"net/http"

	"github.com/fyrsmithlabs/webtrack/pkg/telemetry"
)

// RequestIDResolver implements the hierarchical Request-Id correlation
// protocol.
//
// Inbound requests carrying a Request-Id header become children of the
// caller's span: the operation id is the root segment of the caller's id
// and this request's own id extends it with a fresh suffix. Requests
// without the header start a new operation.
type RequestIDResolver struct {
	settings *Settings
}

// NewRequestIDResolver creates a resolver on the given settings handle.
// A nil handle uses the process-wide Shared settings.
func NewRequestIDResolver(settings *Settings) *RequestIDResolver {
	if settings == nil {
		settings = Shared
	}
	return &RequestIDResolver{settings: settings}
}

// ResolveCorrelation populates the record's identifiers from the inbound
// Request-Id header, collects Correlation-Context baggage into the request
// context, and stamps this component's Request-Context response header.
func (res *RequestIDResolver) ResolveCorrelation(r *http.Request, w http.ResponseWriter, t *telemetry.Request) error {
	if parent := r.Header.Get(RequestIDHeader); parent != "" {
		t.ParentID = parent
		t.OperationID = OperationIDFromRequestID(parent)
		t.ID = ChildRequestID(parent)
	} else {
		root := NewRootRequestID()
		t.OperationID = OperationIDFromRequestID(root)
		t.ID = root
	}

	if rc, ok := telemetry.RequestContextFrom(r.Context()); ok {
		for key, value := range parseCorrelationContext(r.Header.Get(CorrelationContextHeader)) {
			rc.SetBaggage(key, value)
		}
	}

	stampRequestContext(w, res.settings)
	return nil
}

// ResolveSource fills the record's Source from the caller's
// Request-Context header.
func (res *RequestIDResolver) ResolveSource(r *http.Request, t *telemetry.Request, instrumentationKey string) error {
	resolveSource(res.settings, r, t, instrumentationKey)
	return nil
}
