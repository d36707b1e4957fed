// internal/logging/logger_test.go
package logging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/webtrack/internal/config"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Output.Stdout)
	assert.False(t, cfg.Output.OTEL)
	assert.True(t, cfg.Sampling.Enabled)
	assert.Equal(t, 100, cfg.Sampling.Initial)
	assert.Equal(t, 10, cfg.Sampling.Thereafter)
	assert.Equal(t, "webtrack", cfg.Fields["service"])
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad format",
			mutate:  func(c *Config) { c.Format = "yaml" },
			wantErr: "format must be",
		},
		{
			name: "no outputs",
			mutate: func(c *Config) {
				c.Output.Stdout = false
				c.Output.OTEL = false
			},
			wantErr: "at least one output",
		},
		{
			name: "zero sampling tick",
			mutate: func(c *Config) {
				c.Sampling.Tick = config.Duration(0)
			},
			wantErr: "sampling tick",
		},
		{
			name: "negative sampling rate",
			mutate: func(c *Config) {
				c.Sampling.Initial = -1
			},
			wantErr: "sampling rates",
		},
		{
			name: "sampling disabled skips rate checks",
			mutate: func(c *Config) {
				c.Sampling.Enabled = false
				c.Sampling.Tick = config.Duration(0)
			},
		},
		{
			name:    "negative caller skip",
			mutate:  func(c *Config) { c.Caller.Skip = -2 },
			wantErr: "caller skip",
		},
		{
			name:    "empty field value",
			mutate:  func(c *Config) { c.Fields = map[string]string{"env": ""} },
			wantErr: "empty value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		logger, err := NewLogger(NewDefaultConfig(), nil)
		require.NoError(t, err)
		require.NotNil(t, logger)
		assert.NotNil(t, logger.Underlying())
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Format = "xml"
		_, err := NewLogger(cfg, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging config")
	})

	t.Run("otel output without provider fails when stdout disabled", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Output.Stdout = false
		cfg.Output.OTEL = true
		_, err := NewLogger(cfg, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no log output available")
	})
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "debug", want: zapcore.DebugLevel},
		{in: "info", want: zapcore.InfoLevel},
		{in: "warn", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "verbose", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := LevelFromString(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	tl := NewTestLogger()
	ctx := context.Background()

	tl.Debug(ctx, "debug msg")
	tl.Info(ctx, "info msg")
	tl.Warn(ctx, "warn msg")
	tl.Error(ctx, "error msg")

	tl.AssertLogged(t, zapcore.DebugLevel, "debug msg")
	tl.AssertLogged(t, zapcore.InfoLevel, "info msg")
	tl.AssertLogged(t, zapcore.WarnLevel, "warn msg")
	tl.AssertLogged(t, zapcore.ErrorLevel, "error msg")
}

func TestLoggerWithAndNamed(t *testing.T) {
	tl := NewTestLogger()
	ctx := context.Background()

	child := tl.With(zap.String("component", "tracking")).Named("module")
	child.Info(ctx, "child msg")

	entries := tl.FilterMessage("child msg").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "module", entries[0].LoggerName)
	tl.AssertField(t, "child msg", "component", "tracking")
}

func TestNewLoggerConstantFields(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Fields = map[string]string{"service": "webtrack", "env": "test"}
	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, logger.Sync())
}

func TestLoggerSyncSwallowsStdoutErrors(t *testing.T) {
	logger, err := NewLogger(NewDefaultConfig(), nil)
	require.NoError(t, err)

	// Syncing os.Stdout returns EINVAL or ENOTTY depending on where it
	// points; both must be treated as success.
	done := make(chan error, 1)
	go func() { done <- logger.Sync() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sync did not return")
	}
}
