// internal/logging/sampling_test.go
package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/webtrack/internal/config"
)

func newObservedSampled(cfg SamplingConfig) (*zap.Logger, *observer.ObservedLogs) {
	core, observed := observer.New(zapcore.DebugLevel)
	return zap.New(newSampledCore(core, cfg)), observed
}

func TestSampledCoreDisabledPassesEverything(t *testing.T) {
	logger, observed := newObservedSampled(SamplingConfig{Enabled: false})

	for i := 0; i < 50; i++ {
		logger.Info("info entry")
	}

	assert.Equal(t, 50, observed.FilterMessage("info entry").Len())
}

func TestSampledCoreErrorsNeverSampled(t *testing.T) {
	logger, observed := newObservedSampled(SamplingConfig{
		Enabled:    true,
		Tick:       config.Duration(time.Second),
		Initial:    1,
		Thereafter: 1000,
	})

	for i := 0; i < 200; i++ {
		logger.Error("tracking failure")
	}

	assert.Equal(t, 200, observed.FilterMessage("tracking failure").Len())
}

func TestSampledCoreThinsInfoEntries(t *testing.T) {
	logger, observed := newObservedSampled(SamplingConfig{
		Enabled:    true,
		Tick:       config.Duration(time.Minute),
		Initial:    5,
		Thereafter: 1000,
	})

	for i := 0; i < 100; i++ {
		logger.Info("request served")
	}

	// Within one tick only the first Initial entries pass; the 1000
	// thereafter rate drops everything else in this window.
	assert.Equal(t, 5, observed.FilterMessage("request served").Len())
}

func TestSampledCoreWithPreservesFields(t *testing.T) {
	logger, observed := newObservedSampled(SamplingConfig{
		Enabled:    true,
		Tick:       config.Duration(time.Second),
		Initial:    10,
		Thereafter: 1,
	})

	logger.With(zap.String("component", "server")).Error("boom")

	entries := observed.FilterMessage("boom").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "server", fields["component"])
}
