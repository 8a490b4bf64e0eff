package tracer

import (
	"context"
	"strings"
	"testing"

	"go-storefront/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestDisabledTracerIsNoop(t *testing.T) {
	shutdown, err := InitTracer("storefront-test", config.TracerConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}

func TestSampler(t *testing.T) {
	assert.True(t, strings.Contains(Sampler(0).Description(), "AlwaysOnSampler"))
	assert.True(t, strings.Contains(Sampler(1).Description(), "AlwaysOnSampler"))
	assert.True(t, strings.Contains(Sampler(0.25).Description(), "TraceIDRatioBased{0.25}"))
}
