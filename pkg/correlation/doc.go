// Package correlation resolves distributed-tracing identifiers for tracked
// HTTP requests.
//
// # Overview
//
// Two resolver families implement the Resolver interface. RequestIDResolver
// speaks the hierarchical Request-Id protocol together with its
// Correlation-Context and Request-Context companion headers.
// TraceContextResolver speaks the W3C trace-context protocol (traceparent,
// tracestate) and can optionally fall back to Request-Id headers for callers
// that have not migrated yet.
//
// A resolver is selected once, at module construction, and used for every
// request the module sees. The back-compat fallback is controlled through a
// Settings handle shared by all resolver instances in the process; see
// Shared.
//
// # Error Handling
//
// Resolvers only read and write the arguments they are handed plus the
// shared Settings. They never panic on malformed headers; unparseable
// identifiers fall back to freshly generated ones.
package correlation
