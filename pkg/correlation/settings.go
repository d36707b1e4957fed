package correlation

import (
	"sync/atomic"
)

// Shared is the process-wide settings handle used by resolvers constructed
// without an explicit one. A single handle keeps the back-compat switch
// consistent across every tracking module instance in the process.
var Shared = NewSettings()

// Settings holds cross-cutting resolver configuration shared by all
// resolver instances built on the same handle.
//
// All methods are safe for concurrent use. The flags follow last-writer-wins
// semantics: they are written rarely, at configuration time, and read on
// every request.
type Settings struct {
	w3cBackCompat  atomic.Bool
	componentAppID atomic.Value // string
}

// NewSettings creates a settings handle with back-compat enabled, matching
// the default expected during a mixed-version rollout.
func NewSettings() *Settings {
	s := &Settings{}
	s.w3cBackCompat.Store(true)
	return s
}

// SetW3CBackCompatEnabled switches the W3C resolver family's acceptance of
// legacy Request-Id headers on or off, process-wide for every resolver
// sharing this handle.
func (s *Settings) SetW3CBackCompatEnabled(enabled bool) {
	s.w3cBackCompat.Store(enabled)
}

// W3CBackCompatEnabled reports whether legacy fallback is on.
func (s *Settings) W3CBackCompatEnabled() bool {
	return s.w3cBackCompat.Load()
}

// SetComponentAppID records the application id this component identifies
// itself as in outbound Request-Context headers.
func (s *Settings) SetComponentAppID(appID string) {
	s.componentAppID.Store(appID)
}

// ComponentAppID returns the recorded application id, or "" if unset.
func (s *Settings) ComponentAppID() string {
	if v, ok := s.componentAppID.Load().(string); ok {
		return v
	}
	return ""
}

// AppIDForKey derives the application id advertised for an instrumentation
// key. Components exchanging Request-Context headers compare these values
// to tell their own calls apart from foreign callers.
func AppIDForKey(instrumentationKey string) string {
	if instrumentationKey == "" {
		return ""
	}
	return "cid-v1:" + instrumentationKey
}
