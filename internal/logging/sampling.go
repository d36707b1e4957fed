// internal/logging/sampling.go
package logging

import (
	"go.uber.org/zap/zapcore"
)

// newSampledCore bounds below-error log volume.
//
// Error and above bypass the sampler entirely: per-request tracking
// failures log at Error and every one of them must stay visible to
// operators, while the request logs below them are safe to thin out
// under load.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}
	return &sampledCore{
		direct:  core,
		sampled: zapcore.NewSamplerWithOptions(core, cfg.Tick.Duration(), cfg.Initial, cfg.Thereafter),
	}
}

// sampledCore routes Error and above to the unsampled core and everything
// below through the sampler. Both paths write to the same destination.
type sampledCore struct {
	direct  zapcore.Core
	sampled zapcore.Core
}

func (c *sampledCore) Enabled(lvl zapcore.Level) bool {
	return c.direct.Enabled(lvl)
}

func (c *sampledCore) With(fields []zapcore.Field) zapcore.Core {
	return &sampledCore{
		direct:  c.direct.With(fields),
		sampled: c.sampled.With(fields),
	}
}

func (c *sampledCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if e.Level >= zapcore.ErrorLevel {
		return c.direct.Check(e, ce)
	}
	return c.sampled.Check(e, ce)
}

func (c *sampledCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	return c.direct.Write(e, fields)
}

func (c *sampledCore) Sync() error {
	return c.direct.Sync()
}
