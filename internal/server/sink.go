package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/webtrack/internal/logging"
	"github.com/fyrsmithlabs/webtrack/pkg/telemetry"
)

// Envelope is the wire form of one record as posted by the HTTP
// transmitter.
type Envelope struct {
	InstrumentationKey string             `json:"ikey"`
	Time               time.Time          `json:"time"`
	Data               *telemetry.Request `json:"data"`
}

// TrackResponse is the response body for POST /v1/track.
type TrackResponse struct {
	Received int `json:"received"`
}

// collectorSink is the reference collector endpoint: it accepts record
// batches, logs them, and keeps a running count. Real deployments point
// the transmitter at an ingestion service instead.
type collectorSink struct {
	logger   *logging.Logger
	received atomic.Int64
}

func newCollectorSink(logger *logging.Logger) *collectorSink {
	return &collectorSink{logger: logger.Named("collector")}
}

// handleTrack accepts one JSON batch of envelopes.
func (s *collectorSink) handleTrack(c echo.Context) error {
	ctx := c.Request().Context()

	var batch []Envelope
	if err := c.Bind(&batch); err != nil {
		s.logger.Warn(ctx, "rejected malformed track batch", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid batch body")
	}

	for _, env := range batch {
		if env.Data == nil {
			continue
		}
		s.received.Add(1)
		s.logger.Debug(ctx, "received request record",
			zap.String("name", env.Data.Name),
			zap.String("operation_id", env.Data.OperationID),
			zap.String("source", env.Data.Source),
			zap.Int("response_code", env.Data.ResponseCode),
		)
	}

	return c.JSON(http.StatusAccepted, TrackResponse{Received: len(batch)})
}

// Received reports how many records the sink has accepted.
func (s *collectorSink) Received() int64 {
	return s.received.Load()
}
