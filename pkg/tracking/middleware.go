package tracking

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/webtrack/pkg/telemetry"
)

// Middleware returns an echo middleware that tracks every served request
// through the module.
//
// It creates the request's telemetry record and context, attaches them to
// the request, invokes OnBeginRequest before the handler and OnEndRequest
// after it, and fills in the response metadata in between. Handler errors
// pass through untouched.
func Middleware(m *Module) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := beginTracking(c.Request(), m, c.Response())
			c.SetRequest(req)

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusFromError(err)
			}
			endTracking(m, c.Response(), req, start, status)

			return err
		}
	}
}

// Handler wraps a net/http handler with request tracking for hosts not
// running echo.
func Handler(m *Module, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		req := beginTracking(r, m, sw)

		start := time.Now()
		next.ServeHTTP(sw, req)

		endTracking(m, sw, req, start, sw.status)
	})
}

// beginTracking creates the record and context for one request, attaches
// them, and runs the begin hook. The returned request must replace the
// original for the rest of the pipeline.
func beginTracking(r *http.Request, m *Module, w http.ResponseWriter) *http.Request {
	name := r.Method + " " + RemoveSessionID(r.URL.Path)
	record := telemetry.NewRequest(name, r.URL.String())
	rc := telemetry.NewRequestContext(record)

	req := r.WithContext(telemetry.WithRequestContext(r.Context(), rc))
	m.OnBeginRequest(w, req)
	return req
}

// endTracking fills response metadata and runs the end hook.
func endTracking(m *Module, w http.ResponseWriter, r *http.Request, start time.Time, status int) {
	rc, ok := telemetry.RequestContextFrom(r.Context())
	if ok {
		record := rc.Request()
		record.Duration = time.Since(start)
		record.ResponseCode = status
		record.Success = status < http.StatusBadRequest
	}
	m.OnEndRequest(w, r)
}

// statusFromError maps a handler error to the status echo will write.
func statusFromError(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// statusWriter captures the status code written by a net/http handler.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b)
}
