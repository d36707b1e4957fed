package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	before := time.Now().UTC()
	req := NewRequest("GET /orders", "https://shop.example/orders")
	after := time.Now().UTC()

	assert.Equal(t, "GET /orders", req.Name)
	assert.Equal(t, "https://shop.example/orders", req.URL)
	assert.NotNil(t, req.Properties)
	assert.False(t, req.Timestamp.Before(before))
	assert.False(t, req.Timestamp.After(after))
}

func TestRequest_SetProperty(t *testing.T) {
	t.Run("sets on initialized map", func(t *testing.T) {
		req := NewRequest("GET /", "http://localhost/")
		req.SetProperty("region", "us-east")
		assert.Equal(t, "us-east", req.Properties["region"])
	})

	t.Run("initializes nil map", func(t *testing.T) {
		req := &Request{}
		req.SetProperty("region", "us-east")
		assert.Equal(t, "us-east", req.Properties["region"])
	})
}

func TestRequestContext_Baggage(t *testing.T) {
	rc := NewRequestContext(NewRequest("GET /", "http://localhost/"))

	rc.SetBaggage("user", "alice")
	rc.SetBaggage("flight", "canary")

	got := rc.Baggage()
	assert.Equal(t, map[string]string{"user": "alice", "flight": "canary"}, got)

	// Mutating the copy must not affect the context.
	got["user"] = "mallory"
	assert.Equal(t, "alice", rc.Baggage()["user"])
}

func TestRequestContext_Tracestate(t *testing.T) {
	rc := NewRequestContext(NewRequest("GET /", "http://localhost/"))
	assert.Empty(t, rc.Tracestate())

	rc.SetTracestate("vendor=value")
	assert.Equal(t, "vendor=value", rc.Tracestate())
}

func TestWithRequestContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		rc := NewRequestContext(NewRequest("GET /", "http://localhost/"))
		ctx := WithRequestContext(context.Background(), rc)

		got, ok := RequestContextFrom(ctx)
		require.True(t, ok)
		assert.Same(t, rc, got)
		assert.Same(t, rc.Request(), got.Request())
	})

	t.Run("absent", func(t *testing.T) {
		got, ok := RequestContextFrom(context.Background())
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}
