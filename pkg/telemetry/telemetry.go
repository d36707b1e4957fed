package telemetry

import (
	"time"
)

// Request is a single tracked server request.
//
// A record is created when the request begins and completed when the
// response is written. ID identifies this request, OperationID groups all
// telemetry belonging to one distributed operation, and ParentID points at
// the caller that issued the request.
type Request struct {
	// ID uniquely identifies this request within its operation.
	ID string `json:"id"`

	// OperationID is the distributed operation (trace) this request belongs to.
	OperationID string `json:"operation_id"`

	// ParentID identifies the upstream caller. Empty for root requests.
	ParentID string `json:"parent_id,omitempty"`

	// Source names the instrumented caller, resolved from the correlation
	// headers of the incoming request.
	Source string `json:"source,omitempty"`

	// Name is the request name, conventionally "METHOD /path".
	Name string `json:"name"`

	// URL is the full request URL.
	URL string `json:"url"`

	Timestamp    time.Time     `json:"timestamp"`
	Duration     time.Duration `json:"duration_ns"`
	ResponseCode int           `json:"response_code"`
	Success      bool          `json:"success"`

	// Properties carries free-form dimensions attached to the record.
	Properties map[string]string `json:"properties,omitempty"`
}

// NewRequest creates a request record stamped with the current time.
func NewRequest(name, url string) *Request {
	return &Request{
		Name:       name,
		URL:        url,
		Timestamp:  time.Now().UTC(),
		Properties: make(map[string]string),
	}
}

// SetProperty attaches a custom dimension to the record.
func (r *Request) SetProperty(key, value string) {
	if r.Properties == nil {
		r.Properties = make(map[string]string)
	}
	r.Properties[key] = value
}
