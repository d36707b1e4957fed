package tracking

import "strings"

// RemoveSessionID strips container-injected path parameters from a URI.
//
// Servlet containers sometimes rewrite URLs to carry a session id in a
// ";jsessionid=..." path parameter for clients with cookies disabled.
// Telemetry dimensions built from such URLs fragment per session, so
// everything from the first ';' on is discarded. A URI without the
// separator is returned unchanged.
func RemoveSessionID(uri string) string {
	if i := strings.IndexByte(uri, ';'); i >= 0 {
		return uri[:i]
	}
	return uri
}
