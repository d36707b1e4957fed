// Package logging provides structured, context-aware logging for webtrackd.
//
// # Overview
//
// Logging is built on Zap with two optional outputs: stdout (JSON or
// console encoding) and an OpenTelemetry bridge core. Log lines emitted
// while a tracked request is served automatically carry the request's
// operation and parent ids, extracted from the telemetry context the
// tracking middleware attaches.
//
// # Usage
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	logger.Info(ctx, "request served", zap.Int("status", 200))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  sampling:
//	    enabled: true
//	    tick: "1s"
//
// # Sampling
//
// Below-error levels are sampled to bound log volume under load; Error and
// above always pass through, so every telemetry drop stays visible.
//
// # Testing
//
// NewTestLogger returns a logger backed by an observer core with
// assertion helpers (AssertLogged, AssertField).
package logging
