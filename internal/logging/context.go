// internal/logging/context.go
package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/webtrack/pkg/telemetry"
)

// ContextFields extracts correlation data from context.
//
// Requests passing through the tracking middleware carry their telemetry
// record in the context; its operation and parent ids are attached to
// every log line emitted while the request is served, joining log output
// to the same trace the telemetry records belong to.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	// Trace correlation (from OpenTelemetry)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	// Request tracking correlation
	if rc, ok := telemetry.RequestContextFrom(ctx); ok {
		record := rc.Request()
		if record.OperationID != "" {
			fields = append(fields, zap.String("operation_id", record.OperationID))
		}
		if record.ParentID != "" {
			fields = append(fields, zap.String("parent_id", record.ParentID))
		}
		if record.Name != "" {
			fields = append(fields, zap.String("request_name", record.Name))
		}
	}

	return fields
}

// loggerCtxKey is the context key for Logger.
type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a default nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zap: zap.NewNop()}
}
