package correlation

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewTraceID generates a 32-hex-digit trace id.
func NewTraceID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// NewSpanID generates a 16-hex-digit span id.
func NewSpanID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:8])
}

// NewRootRequestID generates a root id in the hierarchical Request-Id
// format: a pipe, the operation id, and a trailing dot for children to
// append their suffixes to.
func NewRootRequestID() string {
	return "|" + NewTraceID() + "."
}

// ChildRequestID derives this request's own id from the caller's
// Request-Id by appending a fresh suffix.
func ChildRequestID(parentID string) string {
	child := parentID
	if !strings.HasSuffix(child, ".") {
		child += "."
	}
	return child + NewSpanID()[:8] + "_"
}

// OperationIDFromRequestID extracts the root operation id from a
// hierarchical Request-Id: everything between the leading pipe and the
// first dot. Malformed ids are returned trimmed of the pipe so callers
// always get a usable operation id.
func OperationIDFromRequestID(requestID string) string {
	id := strings.TrimPrefix(requestID, "|")
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i]
	}
	return id
}

// isHex32 reports whether s is exactly 32 lowercase-insensitive hex digits,
// the shape a W3C trace id requires.
func isHex32(s string) bool {
	if len(s) != 32 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
