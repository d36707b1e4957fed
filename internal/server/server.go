// Package server provides the webtrackd HTTP host.
//
// Every route is served through the request-tracking middleware, so the
// daemon's own traffic produces the same telemetry records the library
// produces when embedded. The daemon doubles as a reference collector: the
// /v1/track endpoint accepts the batches the HTTP transmitter posts.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/webtrack/internal/logging"
	"github.com/fyrsmithlabs/webtrack/pkg/telemetry"
	"github.com/fyrsmithlabs/webtrack/pkg/tracking"
)

// Server hosts the webtrackd HTTP endpoints.
type Server struct {
	echo   *echo.Echo
	module *tracking.Module
	logger *logging.Logger
	config *Config

	sink *collectorSink
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates the HTTP host instrumented by the given module.
//
// metricsHandler serves GET /metrics and may be nil to disable the
// endpoint.
func NewServer(module *tracking.Module, metricsHandler http.Handler, logger *logging.Logger, cfg *Config) (*Server, error) {
	if module == nil {
		return nil, fmt.Errorf("tracking module cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8600,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Tracking runs outermost so a panicking handler, converted to a 500
	// by Recover, still produces a finished record.
	e.Use(tracking.Middleware(module))
	e.Use(middleware.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			// The request context carries the telemetry record by this
			// point, so the line picks up operation and parent ids
			// without spelling them out here.
			logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)

			return err
		}
	})

	s := &Server{
		echo:   e,
		module: module,
		logger: logger,
		config: cfg,
		sink:   newCollectorSink(logger),
	}

	s.registerRoutes(metricsHandler)

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes(metricsHandler http.Handler) {
	s.echo.GET("/health", s.handleHealth)
	if metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
	}

	s.echo.POST("/v1/track", s.sink.handleTrack)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/trace", s.handleTrace)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Tracking bool   `json:"tracking"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Tracking: s.module.Initialized(),
	})
}

// TraceResponse is the response body for GET /api/v1/trace. It echoes the
// correlation identifiers resolved for the calling request, which makes
// the daemon usable as a propagation probe.
type TraceResponse struct {
	ID          string `json:"id"`
	OperationID string `json:"operation_id"`
	ParentID    string `json:"parent_id,omitempty"`
	Name        string `json:"name"`
}

// handleTrace reports the identifiers of the current request.
func (s *Server) handleTrace(c echo.Context) error {
	rc, ok := telemetry.RequestContextFrom(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request tracking inactive")
	}

	record := rc.Request()
	return c.JSON(http.StatusOK, TraceResponse{
		ID:          record.ID,
		OperationID: record.OperationID,
		ParentID:    record.ParentID,
		Name:        record.Name,
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
