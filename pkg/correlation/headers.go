package correlation

import (
	"net/http"
	"strings"

	"github.com/fyrsmithlabs/webtrack/pkg/telemetry"
)

// parseCorrelationContext splits a Correlation-Context header value into
// its key=value pairs. Entries without an equals sign are skipped.
func parseCorrelationContext(value string) map[string]string {
	if value == "" {
		return nil
	}
	pairs := make(map[string]string)
	for _, entry := range strings.Split(value, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok || key == "" {
			continue
		}
		pairs[key] = val
	}
	return pairs
}

// appIDFromRequestContext extracts the appId value from a Request-Context
// header, which carries comma-separated key=value entries.
func appIDFromRequestContext(value string) string {
	for _, entry := range strings.Split(value, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if ok && key == "appId" {
			return val
		}
	}
	return ""
}

// stampRequestContext writes this component's Request-Context response
// header so callers can resolve us as their dependency target. Nothing is
// written when the component id is unknown or the header is already set.
func stampRequestContext(w http.ResponseWriter, settings *Settings) {
	appID := settings.ComponentAppID()
	if appID == "" || w.Header().Get(RequestContextHeader) != "" {
		return
	}
	w.Header().Set(RequestContextHeader, "appId="+appID)
}

// resolveSource fills the record's Source from the inbound Request-Context
// header. Calls carrying our own application id are not a foreign source
// and leave the record untouched.
func resolveSource(settings *Settings, r *http.Request, t *telemetry.Request, instrumentationKey string) {
	if t.Source != "" {
		return
	}
	inbound := r.Header.Get(RequestContextHeader)
	if inbound == "" {
		return
	}

	caller := appIDFromRequestContext(inbound)
	if caller == "" {
		return
	}

	own := settings.ComponentAppID()
	if own == "" {
		own = AppIDForKey(instrumentationKey)
	}
	if caller != own {
		t.Source = caller
	}
}
