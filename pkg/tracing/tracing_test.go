package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), DefaultConfig("cart-service"))
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracer_Enabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	cfg := DefaultConfig("cart-service")
	cfg.Enabled = true
	cfg.OTLPEndpoint = "127.0.0.1:0"

	shutdown, err := InitTracer(context.Background(), cfg)
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok, "global provider should be the SDK provider")

	// The endpoint is unreachable, so a flush error is acceptable here.
	_ = shutdown(context.Background())
}

func TestConfig_Sampler(t *testing.T) {
	cfg := DefaultConfig("x")

	cfg.SampleRate = 1.0
	assert.Equal(t, sdktrace.AlwaysSample().Description(), cfg.Sampler().Description())

	cfg.SampleRate = 0
	assert.Equal(t, sdktrace.NeverSample().Description(), cfg.Sampler().Description())

	cfg.SampleRate = 0.25
	assert.Contains(t, cfg.Sampler().Description(), "TraceIDRatioBased{0.25}")
}
