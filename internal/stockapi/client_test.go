package stockapi

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

	"stockpulse/internal/analytics"
	"stockpulse/internal/config"
	apierrors "stockpulse/internal/errors"
)

const (
	stocksJSON  = `{"stocks":{"Nvidia Corporation":"NVDA","Advanced Micro Devices, Inc.":"AMD","Tesla, Inc.":"TSLA"}}`
	historyJSON = `[{"price":231.95,"lastUpdatedAt":"2025-05-08T04:26:27.4658491Z"},{"price":124.95,"lastUpdatedAt":"2025-05-08T04:30:23.465940341Z"}]`
	currentJSON = `{"stock":{"price":666.66,"lastUpdatedAt":"2025-05-08T04:26:27.4658491Z"}}`
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default().Upstream
	cfg.BaseURL = server.URL
	cfg.Token = "test-token"
	cfg.Timeout = 2 * time.Second

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(cfg, WithLogger(logger)), server
}

func TestClient_Stocks(t *testing.T) {
	var gotAuth, gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, stocksJSON)
	})

	dir, err := client.Stocks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "/stocks", gotPath)
	assert.Equal(t, []string{"NVDA", "AMD", "TSLA"}, dir.Symbols(), "provider order is kept")
}

func TestClient_History(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stocks/NVDA", r.URL.Path)
		gotQuery = r.URL.Query().Get("minutes")
		_, _ = io.WriteString(w, historyJSON)
	})

	data, err := client.History(context.Background(), "NVDA", 50)
	require.NoError(t, err)

	assert.Equal(t, "50", gotQuery)
	series, ok := data.AsSeries()
	require.True(t, ok)
	require.Len(t, series, 2)
	assert.Equal(t, 231.95, series[0].Price)
	assert.Equal(t, 124.95, series[1].Price)
}

func TestClient_HistoryKeepsSingleReading(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, currentJSON)
	})

	data, err := client.History(context.Background(), "NVDA", 10)
	require.NoError(t, err)
	assert.Equal(t, analytics.KindReading, data.Kind())

	p, ok := data.AsReading()
	require.True(t, ok)
	assert.Equal(t, 666.66, p.Price)
}

func TestClient_Current(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("minutes"))
		_, _ = io.WriteString(w, currentJSON)
	})

	p, err := client.Current(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Equal(t, 666.66, p.Price)
	assert.Equal(t, 2025, p.ObservedAt.Year())
}

func TestClient_CurrentEmptyIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := client.Current(context.Background(), "NVDA")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		notFound    bool
		statusError bool
		appType     apierrors.ErrorType
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", statusError: true, appType: apierrors.ErrTypeUpstream},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"message":"invalid token"}`, statusError: true, appType: apierrors.ErrTypeUpstream},
		{name: "not found", status: http.StatusNotFound, notFound: true, statusError: true, appType: apierrors.ErrTypeUpstream},
		{name: "malformed body", status: http.StatusOK, body: `[{"price":`, appType: apierrors.ErrTypeParsing},
		{name: "unexpected shape", status: http.StatusOK, body: `"hello"`, appType: apierrors.ErrTypeParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.History(context.Background(), "NVDA", 30)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpstream)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrNotFound))

			var se *StatusError
			assert.Equal(t, tt.statusError, errors.As(err, &se))
			if tt.statusError {
				assert.Equal(t, tt.status, se.StatusCode)
				assert.Equal(t, EndpointHistory, se.Endpoint)
			}

			var appErr *apierrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.appType, appErr.Type)
		})
	}
}

func TestClient_StocksMalformed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"stocks":["NVDA"]}`)
	})

	_, err := client.Stocks(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)

	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeParsing, appErr.Type)
	assert.Equal(t, EndpointStocks, appErr.Context["endpoint"])
}

func TestClient_TransportError(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	err := client.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)

	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeNetwork, appErr.Type)
}

func TestClient_ContextCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, stocksJSON)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Stocks(ctx)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, stocksJSON)
	}))
	defer server.Close()

	cfg := config.Default().Upstream
	cfg.BaseURL = server.URL

	_, err := NewClient(cfg).Stocks(context.Background())
	assert.NoError(t, err)
}

func TestClient_TickerIsPathEscaped(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = io.WriteString(w, currentJSON)
	})

	_, err := client.Current(context.Background(), "A/B")
	require.NoError(t, err)
	assert.Equal(t, "/stocks/A%2FB", gotPath)
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Endpoint: EndpointStocks, StatusCode: http.StatusBadGateway}
	assert.Contains(t, err.Error(), "502")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrNotFound)
}
