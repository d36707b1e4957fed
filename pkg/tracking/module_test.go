package tracking

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/webtrack/pkg/correlation"
	"github.com/fyrsmithlabs/webtrack/pkg/telemetry"
)

const testInstrumentationKey = "00000000-0000-0000-0000-000000000001"

// newObservedLogger returns a logger whose output can be asserted on.
func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

// newCaptureClient builds a telemetry client delivering into a capture
// channel.
func newCaptureClient(t *testing.T) (*telemetry.Client, *telemetry.CaptureChannel) {
	t.Helper()

	cfg := telemetry.NewDefaultConfiguration()
	cfg.InstrumentationKey = testInstrumentationKey

	capture := telemetry.NewCaptureChannel()
	client, err := telemetry.NewClient(cfg, capture, zap.NewNop())
	require.NoError(t, err)
	return client, capture
}

// newArmedModule builds an initialized module on isolated settings.
func newArmedModule(t *testing.T, options map[string]string) (*Module, *telemetry.CaptureChannel, *observer.ObservedLogs) {
	t.Helper()

	logger, logs := newObservedLogger()
	module := NewModuleWithSettings(options, correlation.NewSettings(), logger)

	client, capture := newCaptureClient(t)
	module.InitializeWithClient(client)
	require.True(t, module.Initialized())

	return module, capture, logs
}

// trackedRequest builds a request the way the middleware hands it to the
// hooks: telemetry record and context attached.
func trackedRequest(headers map[string]string) (*http.Request, *telemetry.Request) {
	record := telemetry.NewRequest("GET /orders", "http://shop.example/orders")
	rc := telemetry.NewRequestContext(record)

	req := httptest.NewRequest(http.MethodGet, "http://shop.example/orders", nil)
	req = req.WithContext(telemetry.WithRequestContext(req.Context(), rc))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, record
}

func TestNewModule_ResolverSelection(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]string
		wantW3C bool
	}{
		{"defaults to legacy", nil, false},
		{"explicit legacy", map[string]string{OptionW3CEnabled: "false"}, false},
		{"w3c enabled", map[string]string{OptionW3CEnabled: "true"}, true},
		{"unparseable value selects legacy", map[string]string{OptionW3CEnabled: "yes please"}, false},
		{"unknown keys are ignored", map[string]string{"SomethingElse": "true"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModuleWithSettings(tt.options, correlation.NewSettings(), zap.NewNop())
			assert.Equal(t, tt.wantW3C, m.W3CEnabled())
			if tt.wantW3C {
				assert.IsType(t, &correlation.TraceContextResolver{}, m.resolver)
			} else {
				assert.IsType(t, &correlation.RequestIDResolver{}, m.resolver)
			}
		})
	}
}

func TestNewModule_BackCompatOption(t *testing.T) {
	settings := correlation.NewSettings()
	require.True(t, settings.W3CBackCompatEnabled())

	NewModuleWithSettings(map[string]string{OptionEnableW3CBackCompat: "false"}, settings, zap.NewNop())
	assert.False(t, settings.W3CBackCompatEnabled())

	// Visible to every module sharing the handle, regardless of which one
	// set it.
	other := NewModuleWithSettings(map[string]string{OptionW3CEnabled: "true"}, settings, zap.NewNop())
	assert.False(t, other.settings.W3CBackCompatEnabled())

	other.SetW3CBackCompatEnabled(true)
	assert.True(t, settings.W3CBackCompatEnabled())
}

func TestModule_Initialize(t *testing.T) {
	t.Run("valid configuration arms the module", func(t *testing.T) {
		logger, logs := newObservedLogger()
		m := NewModuleWithSettings(nil, correlation.NewSettings(), logger)

		cfg := telemetry.NewDefaultConfiguration()
		cfg.InstrumentationKey = testInstrumentationKey
		m.Initialize(cfg)

		assert.True(t, m.Initialized())
		assert.NotNil(t, m.Client())
		assert.Equal(t, 0, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	})

	t.Run("failure logs once and disables the module permanently", func(t *testing.T) {
		logger, logs := newObservedLogger()
		settings := correlation.NewSettings()
		m := NewModuleWithSettings(nil, settings, logger)

		// Missing instrumentation key fails client construction.
		m.Initialize(telemetry.NewDefaultConfiguration())

		assert.False(t, m.Initialized())
		require.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

		// Every subsequent hook call is a silent no-op: the log must not
		// grow beyond the single startup diagnostic.
		for i := 0; i < 50; i++ {
			req, _ := trackedRequest(nil)
			w := httptest.NewRecorder()
			m.OnBeginRequest(w, req)
			m.OnEndRequest(w, req)
		}
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("nil client is an initialization failure", func(t *testing.T) {
		logger, logs := newObservedLogger()
		m := NewModuleWithSettings(nil, correlation.NewSettings(), logger)

		m.InitializeWithClient(nil)

		assert.False(t, m.Initialized())
		assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	})

	t.Run("arming publishes the component app id", func(t *testing.T) {
		settings := correlation.NewSettings()
		m := NewModuleWithSettings(nil, settings, zap.NewNop())

		client, _ := newCaptureClient(t)
		m.InitializeWithClient(client)

		assert.Equal(t, correlation.AppIDForKey(testInstrumentationKey), settings.ComponentAppID())
	})
}

func TestModule_OnBeginRequest(t *testing.T) {
	t.Run("resolves legacy correlation", func(t *testing.T) {
		m, _, logs := newArmedModule(t, nil)
		req, record := trackedRequest(map[string]string{
			correlation.RequestIDHeader: "|rootid1.span1.",
		})
		w := httptest.NewRecorder()

		m.OnBeginRequest(w, req)

		assert.Equal(t, "rootid1", record.OperationID)
		assert.Equal(t, "|rootid1.span1.", record.ParentID)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("resolves w3c correlation", func(t *testing.T) {
		m, _, logs := newArmedModule(t, map[string]string{OptionW3CEnabled: "true"})
		req, record := trackedRequest(map[string]string{
			"traceparent": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
		})
		w := httptest.NewRecorder()

		m.OnBeginRequest(w, req)

		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", record.OperationID)
		assert.Equal(t, "00f067aa0ba902b7", record.ParentID)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("missing request context logs one diagnostic", func(t *testing.T) {
		m, _, logs := newArmedModule(t, nil)
		req := httptest.NewRequest(http.MethodGet, "http://shop.example/", nil)
		w := httptest.NewRecorder()

		m.OnBeginRequest(w, req)

		assert.Equal(t, 1, logs.FilterMessage("telemetry module hook failed").Len())
	})

	t.Run("panicking resolver is contained", func(t *testing.T) {
		m, _, logs := newArmedModule(t, nil)
		m.resolver = panickingResolver{}
		req, _ := trackedRequest(nil)
		w := httptest.NewRecorder()

		assert.NotPanics(t, func() { m.OnBeginRequest(w, req) })
		assert.Equal(t, 1, logs.FilterMessage("telemetry module hook failed").Len())
	})
}

func TestModule_OnEndRequest(t *testing.T) {
	t.Run("tracks the record exactly once", func(t *testing.T) {
		m, capture, logs := newArmedModule(t, nil)
		req, record := trackedRequest(nil)
		w := httptest.NewRecorder()

		m.OnBeginRequest(w, req)
		m.OnEndRequest(w, req)

		tracked := capture.Requests()
		require.Len(t, tracked, 1)
		assert.Same(t, record, tracked[0])
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("resolves the call source before hand-off", func(t *testing.T) {
		m, capture, _ := newArmedModule(t, nil)
		req, _ := trackedRequest(map[string]string{
			correlation.RequestContextHeader: "appId=cid-v1:caller-key",
		})
		w := httptest.NewRecorder()

		m.OnBeginRequest(w, req)
		m.OnEndRequest(w, req)

		tracked := capture.Requests()
		require.Len(t, tracked, 1)
		assert.Equal(t, "cid-v1:caller-key", tracked[0].Source)
	})

	t.Run("resolver failure drops the record", func(t *testing.T) {
		m, capture, logs := newArmedModule(t, nil)
		m.resolver = failingResolver{}
		req, _ := trackedRequest(nil)
		w := httptest.NewRecorder()

		m.OnEndRequest(w, req)

		assert.Empty(t, capture.Requests())
		assert.Equal(t, 1, logs.FilterMessage("telemetry module hook failed").Len())
	})

	t.Run("track failure drops the record", func(t *testing.T) {
		m, capture, logs := newArmedModule(t, nil)
		capture.FailWith(telemetry.ErrBufferFull)
		req, _ := trackedRequest(nil)
		w := httptest.NewRecorder()

		m.OnEndRequest(w, req)

		assert.Empty(t, capture.Requests())
		assert.Equal(t, 1, logs.FilterMessage("telemetry module hook failed").Len())
	})

	t.Run("missing request context never reaches the client", func(t *testing.T) {
		m, capture, logs := newArmedModule(t, nil)
		req := httptest.NewRequest(http.MethodGet, "http://shop.example/", nil)
		w := httptest.NewRecorder()

		m.OnEndRequest(w, req)

		assert.Empty(t, capture.Requests())
		assert.Equal(t, 1, logs.Len())
	})
}

func TestModule_FamilyConsistentAcrossLifetime(t *testing.T) {
	m, capture, _ := newArmedModule(t, map[string]string{OptionW3CEnabled: "true"})

	// A legacy Request-Id with back-compat off must not flip the module to
	// the legacy family; the W3C resolver handles (and here ignores) it.
	m.SetW3CBackCompatEnabled(false)

	for i := 0; i < 3; i++ {
		req, record := trackedRequest(map[string]string{
			correlation.RequestIDHeader: "|legacyroot.span.",
		})
		w := httptest.NewRecorder()

		m.OnBeginRequest(w, req)
		m.OnEndRequest(w, req)

		assert.Empty(t, record.ParentID)
		assert.Len(t, record.OperationID, 32)
	}
	assert.Len(t, capture.Requests(), 3)
}

// panickingResolver fails hooks with a panic instead of an error.
type panickingResolver struct{}

func (panickingResolver) ResolveCorrelation(*http.Request, http.ResponseWriter, *telemetry.Request) error {
	panic("resolver exploded")
}

func (panickingResolver) ResolveSource(*http.Request, *telemetry.Request, string) error {
	panic("resolver exploded")
}

// failingResolver fails hooks with an error.
type failingResolver struct{}

func (failingResolver) ResolveCorrelation(*http.Request, http.ResponseWriter, *telemetry.Request) error {
	return fmt.Errorf("correlation unavailable")
}

func (failingResolver) ResolveSource(*http.Request, *telemetry.Request, string) error {
	return fmt.Errorf("source unavailable")
}
