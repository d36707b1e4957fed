// internal/logging/logger.go
package logging

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
)

// Logger emits structured log lines that carry the correlation identifiers
// of the request being served.
//
// Every level method takes a context. Lines logged while a tracked request
// is in flight pick up its operation and parent ids through ContextFields,
// so log output joins the same trace the telemetry records belong to.
type Logger struct {
	zap *zap.Logger
}

// NewLogger builds a logger from config.
//
// otelProvider backs the optional OTEL bridge output and may be nil, in
// which case only stdout output is available.
func NewLogger(cfg *Config, otelProvider log.LoggerProvider) (*Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}

	core, err := buildCore(cfg, otelProvider)
	if err != nil {
		return nil, err
	}

	var opts []zap.Option
	if cfg.Caller.Enabled {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(cfg.Caller.Skip))
	}
	if cfg.Stacktrace.Level != 0 {
		opts = append(opts, zap.AddStacktrace(cfg.Stacktrace.Level))
	}

	zl := zap.New(core, opts...)

	if len(cfg.Fields) > 0 {
		constant := make([]zap.Field, 0, len(cfg.Fields))
		for k, v := range cfg.Fields {
			constant = append(constant, zap.String(k, v))
		}
		zl = zl.With(constant...)
	}

	return &Logger{zap: zl}, nil
}

// Debug logs at debug level with correlation fields from ctx.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.zap.Debug(msg, append(ContextFields(ctx), fields...)...)
}

// Info logs at info level with correlation fields from ctx.
func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.zap.Info(msg, append(ContextFields(ctx), fields...)...)
}

// Warn logs at warn level with correlation fields from ctx.
func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.zap.Warn(msg, append(ContextFields(ctx), fields...)...)
}

// Error logs at error level with correlation fields from ctx. Error lines
// are never sampled; see newSampledCore.
func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.zap.Error(msg, append(ContextFields(ctx), fields...)...)
}

// With returns a child logger carrying the given constant fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.zap.With(fields...)}
}

// Named returns a child logger with name appended to its logger name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{zap: l.zap.Named(name)}
}

// Sync flushes buffered entries. Sync failures on stdout are swallowed;
// on Linux syncing a terminal or pipe returns EINVAL or ENOTTY.
func (l *Logger) Sync() error {
	err := l.zap.Sync()
	var errno syscall.Errno
	if errors.As(err, &errno) && (errno == syscall.EINVAL || errno == syscall.ENOTTY) {
		return nil
	}
	return err
}

// Underlying returns the wrapped *zap.Logger for libraries that take one
// directly, such as the tracking module and the telemetry client.
func (l *Logger) Underlying() *zap.Logger {
	return l.zap
}
