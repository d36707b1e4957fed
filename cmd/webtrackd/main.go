// Webtrackd hosts the HTTP request-tracking daemon.
//
// The daemon instruments its own HTTP surface with the request-tracking
// module, accepts telemetry batches on /v1/track, and exposes Prometheus
// metrics on /metrics.
//
// Configuration is loaded from a YAML file plus WEBTRACK_* environment
// variables. See internal/config for the schema.
//
// Usage:
//
//	# Start with defaults
//	webtrackd serve
//
//	# Start with a config file (hot-reloaded on change)
//	webtrackd serve --config /etc/webtrack/config.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/webtrack/internal/config"
	"github.com/fyrsmithlabs/webtrack/internal/logging"
	"github.com/fyrsmithlabs/webtrack/internal/observability"
	"github.com/fyrsmithlabs/webtrack/internal/server"
	"github.com/fyrsmithlabs/webtrack/pkg/telemetry"
	"github.com/fyrsmithlabs/webtrack/pkg/tracking"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "webtrackd",
	Short:   "HTTP request-tracking telemetry daemon",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webtrackd server",
	Long: `Start the webtrackd HTTP server with request tracking enabled.

Examples:
  # Start with defaults
  webtrackd serve

  # Start with a config file
  webtrackd serve --config /etc/webtrack/config.yaml

  # Override a setting via environment
  WEBTRACK_SERVER_PORT=9600 webtrackd serve`,
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("webtrackd by Fyrsmith Labs\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stdout sync failure on exit is harmless

	// The tracking module, telemetry client, and config watcher take a
	// bare *zap.Logger; everything in this package logs through the
	// context-aware wrapper.
	zlog := logger.Underlying()
	logger.Info(ctx, "starting webtrackd",
		zap.String("version", version),
		zap.String("commit", gitCommit))

	if cfg.Logging.OTELOutput {
		// No log exporter is wired into the daemon, so the bridge output
		// has no provider to attach to. Stdout output still carries
		// every line.
		logger.Warn(ctx, "logging.otel_output is enabled but no OTEL logger provider is configured, logging to stdout only")
	}

	obs, err := observability.New(ctx, &cfg.Observability)
	if err != nil {
		// Metrics are additive: run without them rather than refuse to start.
		logger.Warn(ctx, "observability init failed, continuing without metrics", zap.Error(err))
	}

	client, natsConn, err := newTelemetryClient(cfg, zlog)
	if err != nil {
		return fmt.Errorf("initialize telemetry client: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer shutdownCancel()
		if err := client.Close(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "telemetry client close", zap.Error(err))
		}
		if natsConn != nil {
			natsConn.Close()
		}
	}()

	module := tracking.NewModule(cfg.Tracking.ModuleOptions(), zlog)
	module.InitializeWithClient(client)

	srv, err := server.NewServer(module, obs.PrometheusHandler(), logger, &server.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	// Hot-reload pushes the back-compat flag into the running module;
	// other settings require a restart.
	var watcher *config.Watcher
	if configPath != "" {
		watcher, err = config.NewWatcher(configPath, func(next *config.Config) {
			module.SetW3CBackCompatEnabled(next.Tracking.EnableW3CBackCompat)
			logger.Info(ctx, "configuration reloaded",
				zap.Bool("enable_w3c_back_compat", next.Tracking.EnableW3CBackCompat))
		}, zlog)
		if err != nil {
			logger.Warn(ctx, "config watcher init failed, hot-reload disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info(ctx, "received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "server shutdown", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "observability shutdown", zap.Error(err))
	}

	logger.Info(context.Background(), "shutdown complete")
	return nil
}

// newLogger builds the daemon logger from the top-level config file
// section, keeping internal/logging defaults for encoder and sampling.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	logCfg := logging.NewDefaultConfig()
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logCfg.Level = level
	if cfg.Logging.Format != "" {
		logCfg.Format = cfg.Logging.Format
	}
	// The OTEL bridge output needs a logger provider and the daemon does
	// not construct one; runServe warns when the knob is set. Stdout
	// stays on so the logger always has an output.
	logCfg.Output.OTEL = false
	return logging.NewLogger(logCfg, nil)
}

// newTelemetryClient builds the client for the configured transport. The
// returned NATS connection is non-nil only for the NATS transport and
// must be closed after the client.
func newTelemetryClient(cfg *config.Config, zlog *zap.Logger) (*telemetry.Client, *nats.Conn, error) {
	clientCfg := cfg.Telemetry.Client()

	if cfg.Telemetry.Transport != telemetry.TransportNATS {
		client, err := telemetry.NewClient(clientCfg, nil, zlog)
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	}

	conn, err := nats.Connect(cfg.Telemetry.NATSURL,
		nats.Name("webtrackd"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	tx, err := telemetry.NewNATSTransmitter(conn, cfg.Telemetry.NATSSubject, clientCfg.InstrumentationKey)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	channel := telemetry.NewInMemoryChannel(clientCfg, tx, zlog)

	client, err := telemetry.NewClient(clientCfg, channel, zlog)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return client, conn, nil
}
