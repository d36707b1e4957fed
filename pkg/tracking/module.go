package tracking

import (
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/webtrack/pkg/correlation"
	"github.com/fyrsmithlabs/webtrack/pkg/telemetry"
)

// Configuration option keys recognized by NewModule. Unknown keys are
// ignored.
const (
	// OptionW3CEnabled selects the W3C trace-context resolver family for
	// the module instance. Default false (hierarchical Request-Id).
	OptionW3CEnabled = "W3CEnabled"

	// OptionEnableW3CBackCompat switches legacy fallback on the shared
	// resolver settings, process-wide for every module on the same handle.
	OptionEnableW3CBackCompat = "enableW3CBackCompat"
)

const moduleName = "request-tracking"

// Module hooks request begin and end to produce one telemetry record per
// served request.
//
// A module is constructed with NewModule and armed with Initialize (or
// InitializeWithClient). Until initialization succeeds both hooks are
// silent no-ops; after an initialization failure they stay no-ops for the
// life of the process. Hooks never panic into the host pipeline and never
// alter the served response.
type Module struct {
	logger   *zap.Logger
	settings *correlation.Settings
	resolver correlation.Resolver
	metrics  *Metrics

	w3cEnabled bool

	client      atomic.Pointer[telemetry.Client]
	initialized atomic.Bool
}

// NewModule creates a module from a string option map, using the
// process-wide shared resolver settings.
func NewModule(options map[string]string, logger *zap.Logger) *Module {
	return NewModuleWithSettings(options, correlation.Shared, logger)
}

// NewModuleWithSettings creates a module on an explicit settings handle.
// Intended for tests and hosts that isolate resolver configuration.
func NewModuleWithSettings(options map[string]string, settings *correlation.Settings, logger *zap.Logger) *Module {
	if settings == nil {
		settings = correlation.Shared
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Module{
		logger:   logger.Named("tracking"),
		settings: settings,
		metrics:  NewMetrics(logger),
	}

	if raw, ok := options[OptionW3CEnabled]; ok {
		// Unparseable values select the default family, matching the
		// permissive handling of the rest of the option map.
		m.w3cEnabled, _ = strconv.ParseBool(raw)
	}

	if raw, ok := options[OptionEnableW3CBackCompat]; ok {
		enabled, err := strconv.ParseBool(raw)
		if err == nil {
			settings.SetW3CBackCompatEnabled(enabled)
		}
	}

	if m.w3cEnabled {
		m.resolver = correlation.NewTraceContextResolver(settings)
	} else {
		m.resolver = correlation.NewRequestIDResolver(settings)
	}

	return m
}

// Initialize builds the telemetry client from the configuration and arms
// the module.
//
// Failure never propagates: the module logs one diagnostic, remains
// disabled, and every subsequent hook call is a silent no-op. A disabled
// telemetry module must not stop the host from serving requests.
func (m *Module) Initialize(cfg *telemetry.Configuration) {
	client, err := telemetry.NewClient(cfg, nil, m.logger)
	if err != nil {
		m.logger.Error("telemetry module initialization failed, request tracking disabled",
			zap.String("module", moduleName),
			zap.Error(err))
		return
	}
	m.arm(client)
}

// InitializeWithClient arms the module with an existing client. Hosts that
// own the delivery channel (NATS transports, test captures) use this path.
func (m *Module) InitializeWithClient(client *telemetry.Client) {
	if client == nil {
		m.logger.Error("telemetry module initialization failed, request tracking disabled",
			zap.String("module", moduleName),
			zap.Error(fmt.Errorf("telemetry client is nil")))
		return
	}
	m.arm(client)
}

func (m *Module) arm(client *telemetry.Client) {
	m.client.Store(client)
	m.settings.SetComponentAppID(correlation.AppIDForKey(client.InstrumentationKey()))
	m.initialized.Store(true)
}

// Initialized reports whether the module is armed.
func (m *Module) Initialized() bool {
	return m.initialized.Load()
}

// W3CEnabled reports which resolver family the module was constructed with.
func (m *Module) W3CEnabled() bool {
	return m.w3cEnabled
}

// SetW3CBackCompatEnabled pushes the back-compat flag into the shared
// resolver settings. Deferred form of the OptionEnableW3CBackCompat option
// for hosts that configure after construction.
func (m *Module) SetW3CBackCompatEnabled(enabled bool) {
	m.settings.SetW3CBackCompatEnabled(enabled)
}

// Client returns the telemetry client, or nil before initialization.
func (m *Module) Client() *telemetry.Client {
	return m.client.Load()
}

// OnBeginRequest resolves inbound correlation identifiers onto the
// request's telemetry record.
//
// The record is looked up from the request context attached by the
// middleware. Failures are logged and swallowed; they never reach the host
// pipeline.
func (m *Module) OnBeginRequest(w http.ResponseWriter, r *http.Request) {
	if !m.initialized.Load() {
		// Initialization failure was already reported once at startup;
		// repeating it per request would flood the log.
		return
	}
	defer m.recoverHook(r, "OnBeginRequest")

	rc, ok := telemetry.RequestContextFrom(r.Context())
	if !ok {
		m.hookFailed(r, "OnBeginRequest", fmt.Errorf("no request telemetry context"))
		return
	}

	if err := m.resolver.ResolveCorrelation(r, w, rc.Request()); err != nil {
		m.hookFailed(r, "OnBeginRequest", fmt.Errorf("resolve correlation: %w", err))
	}
}

// OnEndRequest resolves the call source and hands the finished record to
// the telemetry client.
//
// This is the sole hand-off point: the record reaches the client at most
// once per request, and any failure before the hand-off drops it. Failures
// are logged and swallowed.
func (m *Module) OnEndRequest(w http.ResponseWriter, r *http.Request) {
	if !m.initialized.Load() {
		return
	}
	defer m.recoverHook(r, "OnEndRequest")

	rc, ok := telemetry.RequestContextFrom(r.Context())
	if !ok {
		m.hookFailed(r, "OnEndRequest", fmt.Errorf("no request telemetry context"))
		return
	}
	record := rc.Request()
	client := m.client.Load()

	if err := m.resolver.ResolveSource(r, record, client.InstrumentationKey()); err != nil {
		m.hookFailed(r, "OnEndRequest", fmt.Errorf("resolve source: %w", err))
		return
	}

	if err := client.Track(record); err != nil {
		m.hookFailed(r, "OnEndRequest", fmt.Errorf("track record: %w", err))
		return
	}
	m.metrics.RecordTracked(r.Context())
}

// hookFailed emits the single diagnostic for a failed hook and counts the
// dropped record.
func (m *Module) hookFailed(r *http.Request, hook string, err error) {
	m.logger.Error("telemetry module hook failed",
		zap.String("module", moduleName),
		zap.String("hook", hook),
		zap.Error(err))
	m.metrics.RecordDropped(r.Context(), hook)
}

// recoverHook converts a panicking hook into a logged drop.
func (m *Module) recoverHook(r *http.Request, hook string) {
	if v := recover(); v != nil {
		m.hookFailed(r, hook, fmt.Errorf("panic: %v", v))
	}
}
