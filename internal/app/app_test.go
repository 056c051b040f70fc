package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/config"
	apierrors "stockpulse/internal/errors"
	"stockpulse/internal/infrastructure"
	handlers "stockpulse/internal/transport/http"
	"stockpulse/pkg/contracts/domain"
)

const (
	upstreamStocks  = `{"stocks":{"Nvidia Corporation":"NVDA","Advanced Micro Devices, Inc.":"AMD"}}`
	upstreamHistory = `[{"price":231.95,"lastUpdatedAt":"2025-05-08T04:26:27Z"},{"price":124.95,"lastUpdatedAt":"2025-05-08T04:30:23Z"},{"price":150.5,"lastUpdatedAt":"2025-05-08T04:35:23Z"}]`
	upstreamCurrent = `{"stock":{"price":666.66,"lastUpdatedAt":"2025-05-08T04:26:27Z"}}`
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/stocks":
			_, _ = io.WriteString(w, upstreamStocks)
		case strings.HasPrefix(r.URL.Path, "/stocks/") && r.URL.Query().Get("minutes") != "":
			_, _ = io.WriteString(w, upstreamHistory)
		case strings.HasPrefix(r.URL.Path, "/stocks/"):
			_, _ = io.WriteString(w, upstreamCurrent)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// deadUpstream returns the URL of a server that is already closed
func deadUpstream() string {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return url
}

func testConfig(upstreamURL string) *config.Config {
	cfg := config.Default()
	cfg.Upstream.BaseURL = upstreamURL
	cfg.Upstream.Timeout = 2 * time.Second
	cfg.Monitor.Enabled = false
	cfg.Security.RateLimit.Enabled = false
	cfg.Telemetry.TraceExporter = "none"
	cfg.Telemetry.MetricExporter = "none"
	cfg.Server.Host = "127.0.0.1"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := New(cfg, discardLogger())
	require.NoError(t, err)
	return app
}

func serve(app *Application, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	return w
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, discardLogger())
	require.Error(t, err)

	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeConfig, appErr.Type)
}

func TestNew_WiresComponents(t *testing.T) {
	app := newTestApp(t, testConfig("http://upstream.invalid"))

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Metrics, "metrics fall back to a no-op meter")
	assert.NotNil(t, app.Upstream)
	assert.NotNil(t, app.Fallback)
	assert.NotNil(t, app.StockService)
	assert.NotNil(t, app.HealthService)
	assert.Nil(t, app.Monitor)
	assert.Equal(t, "127.0.0.1:8080", app.Server.Addr)
	assert.Equal(t, 1<<20, app.Server.MaxHeaderBytes)
}

func TestNew_MonitorEnabled(t *testing.T) {
	cfg := testConfig("http://upstream.invalid")
	cfg.Monitor.Enabled = true

	app := newTestApp(t, cfg)
	require.NotNil(t, app.Monitor)
	assert.False(t, app.Monitor.Status().Checked)
}

func TestOtelConfig(t *testing.T) {
	tests := []struct {
		name          string
		cfg           config.TelemetryConfig
		expectTracing bool
		expectMetrics bool
	}{
		{
			name:          "defaults",
			cfg:           config.TelemetryConfig{Environment: "development", TraceExporter: "none", MetricExporter: "prometheus", SampleRatio: 1},
			expectMetrics: true,
		},
		{
			name:          "stdout traces",
			cfg:           config.TelemetryConfig{Environment: "production", TraceExporter: "stdout", MetricExporter: "none", SampleRatio: 0.5},
			expectTracing: true,
		},
		{
			name: "empty disables both",
			cfg:  config.TelemetryConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oc := otelConfig(tt.cfg)
			assert.Equal(t, infrastructure.ServiceName, oc.ServiceName)
			assert.Equal(t, VERSION, oc.ServiceVersion)
			assert.Equal(t, tt.cfg.Environment, oc.Environment)
			assert.Equal(t, tt.cfg.SampleRatio, oc.SampleRatio)
			assert.Equal(t, tt.expectTracing, oc.EnableTracing)
			assert.Equal(t, tt.expectMetrics, oc.EnableMetrics)
		})
	}
}

func TestRouter_ProxyRoutes(t *testing.T) {
	app := newTestApp(t, testConfig(fakeUpstream(t).URL))

	t.Run("directory", func(t *testing.T) {
		w := serve(app, http.MethodGet, "/api/stocks", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, string(domain.SourceUpstream), w.Header().Get(handlers.HeaderDataSource))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.JSONEq(t, upstreamStocks, w.Body.String())
	})

	t.Run("current price", func(t *testing.T) {
		w := serve(app, http.MethodGet, "/api/stocks/nvda", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, upstreamCurrent, w.Body.String())
	})

	t.Run("history", func(t *testing.T) {
		w := serve(app, http.MethodGet, "/api/stocks/NVDA?minutes=30", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var series []map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &series))
		assert.Len(t, series, 3)
	})

	t.Run("correlation series", func(t *testing.T) {
		w := serve(app, http.MethodGet, "/api/correlations", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string][]map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Len(t, body, 2)
		assert.Len(t, body["NVDA"], 3)
	})
}

func TestRouter_AnalyticsRoutes(t *testing.T) {
	app := newTestApp(t, testConfig(fakeUpstream(t).URL))

	w := serve(app, http.MethodGet, "/api/analytics/correlations?symbols=NVDA,AMD&minutes=30", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string `json:"status"`
		Data   struct {
			Symbols []string `json:"symbols"`
			Minutes int      `json:"minutes"`
			Source  string   `json:"source"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, []string{"NVDA", "AMD"}, body.Data.Symbols)
	assert.Equal(t, 30, body.Data.Minutes)
	assert.Equal(t, string(domain.SourceUpstream), body.Data.Source)

	w = serve(app, http.MethodGet, "/api/analytics/intervals", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(app, http.MethodGet, "/api/analytics/correlations/export?format=csv&symbols=NVDA,AMD", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "symbol,NVDA,AMD")
}

func TestRouter_FallbackWhenUpstreamDown(t *testing.T) {
	app := newTestApp(t, testConfig(deadUpstream()))

	w := serve(app, http.MethodGet, "/api/stocks/NVDA?minutes=60", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(domain.SourceFallback), w.Header().Get(handlers.HeaderDataSource))

	var series []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &series))
	assert.Len(t, series, 10)
}

func TestRouter_SingleReadingHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/stocks" {
			_, _ = io.WriteString(w, upstreamStocks)
			return
		}
		_, _ = io.WriteString(w, upstreamCurrent)
	}))
	t.Cleanup(server.Close)
	app := newTestApp(t, testConfig(server.URL))

	w := serve(app, http.MethodGet, "/api/stocks/NVDA?minutes=30", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, upstreamCurrent, w.Body.String(), "a reading passes through unchanged")

	w = serve(app, http.MethodGet, "/api/analytics/stocks/NVDA?minutes=30", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Change       map[string]interface{} `json:"change"`
			AveragePrice float64                `json:"averagePrice"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"amount": 0.0, "percentage": 0.0, "isPositive": true}, body.Data.Change)
	assert.Equal(t, 666.66, body.Data.AveragePrice)
}

func TestRouter_UpstreamDownWithoutFallback(t *testing.T) {
	cfg := testConfig(deadUpstream())
	cfg.Fallback.Enabled = false
	app := newTestApp(t, cfg)

	w := serve(app, http.MethodGet, "/api/stocks", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "/errors/upstream-unavailable")
}

func TestRouter_OperationalRoutes(t *testing.T) {
	app := newTestApp(t, testConfig(fakeUpstream(t).URL))

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/api/health", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{path: "/api/health/live", wantStatus: http.StatusOK, wantBody: `"status":"alive"`},
		{path: "/api/health/ready", wantStatus: http.StatusOK, wantBody: `"status":"ready"`},
		{path: "/api/version", wantStatus: http.StatusOK, wantBody: `"version":"` + VERSION + `"`},
		{path: "/api/nope", wantStatus: http.StatusNotFound, wantBody: "/errors/not-found"},
		{path: "/metrics", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := serve(app, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRouter_InvalidTicker(t *testing.T) {
	app := newTestApp(t, testConfig(fakeUpstream(t).URL))

	w := serve(app, http.MethodGet, "/api/stocks/NV$DA", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	app := newTestApp(t, testConfig(fakeUpstream(t).URL))

	w := serve(app, http.MethodPost, "/api/stocks", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_SecurityAndCORS(t *testing.T) {
	app := newTestApp(t, testConfig(fakeUpstream(t).URL))

	w := serve(app, http.MethodGet, "/api/health", http.Header{"Origin": {"http://dashboard.local"}})
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	preflight := serve(app, http.MethodOptions, "/api/stocks", http.Header{
		"Origin":                        {"http://dashboard.local"},
		"Access-Control-Request-Method": {http.MethodGet},
	})
	assert.Equal(t, http.StatusNoContent, preflight.Code)
	assert.Contains(t, preflight.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
}

func TestRouter_CORSDisabled(t *testing.T) {
	cfg := testConfig(fakeUpstream(t).URL)
	cfg.Security.EnableCORS = false
	app := newTestApp(t, cfg)

	w := serve(app, http.MethodGet, "/api/health", http.Header{"Origin": {"http://dashboard.local"}})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig(fakeUpstream(t).URL)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	app := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/health/live", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(app, http.MethodGet, "/api/health/live", nil).Code)
}

func TestRouter_PrometheusEndpoint(t *testing.T) {
	cfg := testConfig(fakeUpstream(t).URL)
	cfg.Telemetry.MetricExporter = "prometheus"
	app := newTestApp(t, cfg)
	t.Cleanup(func() { _ = app.OTelProviders.Shutdown(context.Background()) })

	require.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/stocks", nil).Code)

	w := serve(app, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig(fakeUpstream(t).URL)
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Monitor.Enabled = true
	cfg.Monitor.Schedule = "@every 1h"
	app := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	require.Eventually(t, func() bool { return app.Monitor.Status().Checked }, 5*time.Second, 10*time.Millisecond)
	assert.True(t, app.Monitor.Status().Healthy)

	require.NoError(t, app.Stop(context.Background()))
	assert.NoError(t, ctx.Err(), "a clean shutdown does not cancel the run context")
}

func TestApplication_StartInvalidSchedule(t *testing.T) {
	cfg := testConfig(fakeUpstream(t).URL)
	cfg.Monitor.Enabled = true
	cfg.Monitor.Schedule = "not a schedule"
	app := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, app.Start(ctx, cancel))
}

func TestGenerateBuildID(t *testing.T) {
	id := generateBuildID()
	assert.Len(t, id, 12)
	assert.Equal(t, id, generateBuildID())
}
