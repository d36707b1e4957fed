// internal/logging/core.go
package logging

import (
	"fmt"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// buildCore assembles the zap core from the configured outputs and wraps
// it with sampling.
//
// The OTEL output needs a logger provider; when none is available the
// bridge core is skipped even if configured, and construction fails only
// when that leaves no output at all.
func buildCore(cfg *Config, otelProvider log.LoggerProvider) (zapcore.Core, error) {
	var cores []zapcore.Core

	if cfg.Output.Stdout {
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Format), zapcore.AddSync(os.Stdout), cfg.Level))
	}
	if cfg.Output.OTEL && otelProvider != nil {
		cores = append(cores, otelzap.NewCore("webtrack", otelzap.WithLoggerProvider(otelProvider)))
	}

	var core zapcore.Core
	switch len(cores) {
	case 0:
		return nil, fmt.Errorf("no log output available: stdout disabled and no otel logger provider")
	case 1:
		core = cores[0]
	default:
		core = zapcore.NewTee(cores...)
	}

	return newSampledCore(core, cfg.Sampling), nil
}

func newEncoder(format string) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}
