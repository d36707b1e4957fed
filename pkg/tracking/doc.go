// Package tracking instruments served HTTP requests with request-tracking
// telemetry.
//
// # Overview
//
// Module is the request-lifecycle core: OnBeginRequest resolves inbound
// correlation identifiers onto the request's telemetry record and
// OnEndRequest resolves the call source and hands the finished record to
// the telemetry client. The correlation protocol (hierarchical Request-Id
// or W3C trace-context) is chosen once, at module construction, from the
// option map.
//
// The record itself rides the request's context.Context inside a
// telemetry.RequestContext; the bundled echo and net/http middleware attach
// it, fill in response metadata, and invoke the hooks in the right order.
//
// # Usage
//
//	module := tracking.NewModule(map[string]string{"W3CEnabled": "true"}, logger)
//	module.Initialize(telemetryCfg)
//
//	e := echo.New()
//	e.Use(tracking.Middleware(module))
//
// # Error Handling
//
// Telemetry is best effort. A module that failed to initialize logs one
// diagnostic at startup and turns every hook into a silent no-op. Failures
// inside a hook are caught at the hook boundary, logged, and swallowed; the
// record for that request is dropped and the served response is never
// altered or delayed.
//
// # Testing
//
// Pair the module with a telemetry.CaptureChannel to assert on tracked
// records, and with a zap observer core to assert on diagnostics.
package tracking
