package correlation

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/webtrack/pkg/telemetry"
)

// legacyRootProperty preserves a non-hex legacy root id on records whose
// trace id had to be regenerated during back-compat fallback.
const legacyRootProperty = "legacy_root_id"

// TraceContextResolver implements W3C trace-context correlation.
//
// The operation id is the traceparent's trace id and the parent id is the
// caller's span id. When back-compat is enabled on the settings handle, a
// request without a traceparent may still join an operation through its
// legacy Request-Id header, and the record's own id is formatted in the
// hierarchical legacy shape so unmigrated children can parent to it.
type TraceContextResolver struct {
	settings   *Settings
	propagator propagation.TraceContext
}

// NewTraceContextResolver creates a resolver on the given settings handle.
// A nil handle uses the process-wide Shared settings.
func NewTraceContextResolver(settings *Settings) *TraceContextResolver {
	if settings == nil {
		settings = Shared
	}
	return &TraceContextResolver{settings: settings}
}

// ResolveCorrelation populates the record's identifiers from the inbound
// traceparent header, falling back to Request-Id when back-compat allows,
// and generating fresh identifiers otherwise. The inbound tracestate is
// kept on the request context for downstream propagation.
func (res *TraceContextResolver) ResolveCorrelation(r *http.Request, w http.ResponseWriter, t *telemetry.Request) error {
	backCompat := res.settings.W3CBackCompatEnabled()

	ctx := res.propagator.Extract(context.Background(), propagation.HeaderCarrier(r.Header))
	sc := trace.SpanContextFromContext(ctx)

	switch {
	case sc.IsValid():
		t.OperationID = sc.TraceID().String()
		t.ParentID = sc.SpanID().String()

	case backCompat && r.Header.Get(RequestIDHeader) != "":
		legacy := r.Header.Get(RequestIDHeader)
		root := OperationIDFromRequestID(legacy)
		if isHex32(root) {
			t.OperationID = root
		} else {
			t.OperationID = NewTraceID()
			t.SetProperty(legacyRootProperty, root)
		}
		t.ParentID = legacy

	default:
		t.OperationID = NewTraceID()
	}

	spanID := NewSpanID()
	if backCompat {
		t.ID = "|" + t.OperationID + "." + spanID + "."
	} else {
		t.ID = spanID
	}

	if rc, ok := telemetry.RequestContextFrom(r.Context()); ok {
		if ts := r.Header.Get(TracestateHeader); ts != "" {
			rc.SetTracestate(ts)
		}
	}

	stampRequestContext(w, res.settings)
	return nil
}

// ResolveSource fills the record's Source from the caller's
// Request-Context header.
func (res *TraceContextResolver) ResolveSource(r *http.Request, t *telemetry.Request, instrumentationKey string) error {
	resolveSource(res.settings, r, t, instrumentationKey)
	return nil
}
