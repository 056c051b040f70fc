package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func shutdown(t *testing.T, p *OTelProviders) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, p.Shutdown(ctx))
}

// TestOTelConfiguration tests different configuration options
func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		config     *OTelConfig
		wantTracer bool
		wantMeter  bool
		wantErr    bool
	}{
		{
			name:      "defaults",
			config:    nil,
			wantMeter: true,
		},
		{
			name: "stdout tracing",
			config: &OTelConfig{
				ServiceName:    "test-service",
				ServiceVersion: "v1.0.0",
				Environment:    "test",
				TraceExporter:  "stdout",
				MetricExporter: "none",
				EnableTracing:  true,
				EnableMetrics:  true,
				SampleRatio:    1.0,
			},
			wantTracer: true,
		},
		{
			name: "everything disabled",
			config: &OTelConfig{
				ServiceName:    "test-service",
				ServiceVersion: "v1.0.0",
				Environment:    "test",
			},
		},
		{
			name: "unknown trace exporter",
			config: &OTelConfig{
				ServiceName:   "test-service",
				TraceExporter: "jaeger",
				EnableTracing: true,
			},
			wantErr: true,
		},
		{
			name: "unknown metric exporter",
			config: &OTelConfig{
				ServiceName:    "test-service",
				MetricExporter: "statsd",
				EnableMetrics:  true,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.config, testLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer shutdown(t, providers)

			assert.Equal(t, tt.wantTracer, providers.TracerProvider != nil)
			assert.Equal(t, tt.wantMeter, providers.MeterProvider != nil)
			assert.Equal(t, tt.wantMeter, providers.PrometheusHTTP != nil)
		})
	}
}

func TestBusinessMetrics(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), testLogger())
	require.NoError(t, err)
	defer shutdown(t, providers)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	assert.NotNil(t, metrics.HTTPRequestsTotal)
	assert.NotNil(t, metrics.UpstreamRequestsTotal)
	assert.NotNil(t, metrics.FallbackSubstitutions)
	assert.NotNil(t, metrics.CorrelationBuilds)
	assert.NotNil(t, metrics.CorrelationSymbols)
	assert.NotNil(t, metrics.UpstreamProbes)

	ctx := context.Background()
	RecordUpstreamRequest(ctx, metrics, "history", http.StatusOK, 120*time.Millisecond, nil)
	RecordUpstreamRequest(ctx, metrics, "history", http.StatusBadGateway, time.Second, errors.New("boom"))
	RecordFallbackSubstitution(ctx, metrics, "history")
	RecordCorrelationBuild(ctx, metrics, 5, "upstream")
	RecordAnomalousInput(ctx, metrics, "zero_base_price")
	RecordUpstreamProbe(ctx, metrics, false)

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "upstream_requests_total")
	assert.Contains(t, string(body), "fallback_substitutions_total")
	assert.Contains(t, string(body), "correlation_builds_total")
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordUpstreamRequest(ctx, nil, "stocks", 200, time.Millisecond, nil)
		RecordFallbackSubstitution(ctx, nil, "stocks")
		RecordCorrelationBuild(ctx, nil, 5, "fallback")
		RecordAnomalousInput(ctx, nil, "zero_base_price")
		RecordUpstreamProbe(ctx, nil, true)
	})
}

func TestSpanHelpers(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:   "test-service",
		TraceExporter: "stdout",
		EnableTracing: true,
		SampleRatio:   1.0,
	}, testLogger())
	require.NoError(t, err)
	defer shutdown(t, providers)

	ctx, span := otel.Tracer("test").Start(context.Background(), "test-span")
	defer span.End()

	assert.NotEmpty(t, TraceIDFromContext(ctx))
	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))
	assert.Empty(t, TraceIDFromContext(context.Background()))

	assert.NotPanics(t, func() {
		SetSpanAttributes(ctx, map[string]interface{}{
			"symbol":  "NVDA",
			"minutes": 60,
			"ratio":   0.5,
			"ok":      true,
			"other":   time.Second,
		})
		AddSpanEvent(ctx, "test.event", map[string]interface{}{"n": int64(3)})
		RecordError(ctx, assert.AnError)
	})
	assert.True(t, SpanFromContext(ctx).IsRecording())
}
