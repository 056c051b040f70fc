package stockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"stockpulse/internal/analytics"
	"stockpulse/internal/config"
	apierrors "stockpulse/internal/errors"
	"stockpulse/internal/infrastructure"
	"stockpulse/pkg/contracts/domain"
)

// Endpoint names used in metrics and logs
const (
	EndpointStocks  = "stocks"
	EndpointHistory = "history"
	EndpointCurrent = "current"
)

const maxBodyBytes = 4 << 20

var (
	// ErrUpstream is returned for any failed call to the stock price API
	ErrUpstream = errors.New("upstream request failed")
	// ErrNotFound is returned when the API answers 404 for a ticker
	ErrNotFound = errors.New("stock not found")
)

// StatusError is a non-2xx answer from the stock price API
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is matches ErrUpstream for every status and ErrNotFound for 404
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Client talks to the evaluation-service stock price API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records upstream request metrics
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the client logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates an API client from upstream configuration
func NewClient(cfg config.UpstreamConfig, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		tracer:     otel.Tracer("stockpulse/stockapi"),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = infrastructure.WithComponent(c.logger, "stockapi")
	return c
}

// Stocks fetches the stock directory in provider order
func (c *Client) Stocks(ctx context.Context) (domain.StockDirectory, error) {
	var dir domain.StockDirectory

	body, err := c.get(ctx, EndpointStocks, "/stocks", nil)
	if err != nil {
		return dir, err
	}

	if err := json.Unmarshal(body, &dir); err != nil {
		return dir, apierrors.NewParsingError("decode stocks", fmt.Errorf("%w: %w", ErrUpstream, err)).
			WithContext("endpoint", EndpointStocks)
	}
	return dir, nil
}

// History fetches the price data of a ticker over the last minutes. The
// shape is kept as answered: some tickers return a single reading even
// when minutes is given.
func (c *Client) History(ctx context.Context, ticker string, minutes int) (analytics.PriceData, error) {
	query := url.Values{}
	query.Set("minutes", strconv.Itoa(minutes))

	return c.price(ctx, EndpointHistory, ticker, query)
}

// Current fetches the latest price reading of a ticker
func (c *Client) Current(ctx context.Context, ticker string) (domain.PricePoint, error) {
	data, err := c.price(ctx, EndpointCurrent, ticker, nil)
	if err != nil {
		return domain.PricePoint{}, err
	}

	n := analytics.Normalize(data)
	if !n.HasCurrent {
		return domain.PricePoint{}, fmt.Errorf("%w: no price for %s", ErrNotFound, ticker)
	}
	return n.Current, nil
}

// Ping checks that the API answers the directory endpoint
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, EndpointStocks, "/stocks", nil)
	return err
}

func (c *Client) price(ctx context.Context, endpoint, ticker string, query url.Values) (analytics.PriceData, error) {
	body, err := c.get(ctx, endpoint, "/stocks/"+url.PathEscape(ticker), query)
	if err != nil {
		return analytics.NoData(), err
	}

	data, err := analytics.DecodePriceData(body)
	if err != nil {
		return analytics.NoData(), apierrors.NewParsingError(fmt.Sprintf("decode %s for %s", endpoint, ticker), fmt.Errorf("%w: %w", ErrUpstream, err)).
			WithContext("endpoint", endpoint).
			WithContext("symbol", ticker)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	ctx, span := c.tracer.Start(ctx, "stockapi."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(http.MethodGet),
			semconv.URLFullKey.String(target),
		),
	)
	defer span.End()

	start := time.Now()
	status, body, err := c.do(ctx, endpoint, target)
	duration := time.Since(start)

	infrastructure.RecordUpstreamRequest(ctx, c.metrics, endpoint, status, duration, err)
	span.SetAttributes(semconv.HTTPResponseStatusCodeKey.Int(status), attribute.Int("http.response.bytes", len(body)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.WarnContext(ctx, "upstream request failed",
			slog.String("endpoint", endpoint),
			slog.String("url", target),
			slog.Int("status", status),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, err
	}

	c.logger.DebugContext(ctx, "upstream request completed",
		slog.String("endpoint", endpoint),
		slog.Int("status", status),
		slog.Duration("duration", duration))
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint, target string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("%w: rate limit wait: %w", ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, apierrors.NewNetworkError(endpoint, fmt.Errorf("%w: %w", ErrUpstream, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read %s body: %w", ErrUpstream, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 256),
		}
		return resp.StatusCode, body, apierrors.NewUpstreamError(endpoint, se).WithContext("status", resp.StatusCode)
	}

	return resp.StatusCode, body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
