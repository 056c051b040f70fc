package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stockpulse/internal/analytics"
	"stockpulse/internal/config"
	apierrors "stockpulse/internal/errors"
	"stockpulse/internal/infrastructure"
	"stockpulse/internal/stockapi"
	"stockpulse/pkg/contracts/domain"
)

// Upstream is the stock price API as the service sees it
type Upstream interface {
	Stocks(ctx context.Context) (domain.StockDirectory, error)
	History(ctx context.Context, ticker string, minutes int) (analytics.PriceData, error)
	Current(ctx context.Context, ticker string) (domain.PricePoint, error)
}

// FallbackSource produces synthetic data in the upstream shapes
type FallbackSource interface {
	Stocks() domain.StockDirectory
	History(ticker string, minutes int) domain.PriceSeries
	Current(ticker string) domain.PricePoint
}

// CorrelationRequest selects the symbols and window of a correlation report.
// Zero values use the configured defaults.
type CorrelationRequest struct {
	Minutes int
	Limit   int
	Symbols []string
}

// CorrelationData is the raw per-symbol price data behind a correlation view
type CorrelationData struct {
	Symbols []string
	Minutes int
	Series  map[string]domain.PriceSeries
	Source  domain.DataSource
}

// StockService fetches price data from the upstream API, substitutes
// fallback data when it fails, and feeds the analytics engine.
type StockService struct {
	upstream  Upstream
	fallback  FallbackSource
	builder   *analytics.Builder
	analytics config.AnalyticsConfig
	limit     int
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// StockServiceOption configures a StockService
type StockServiceOption func(*StockService)

// WithServiceMetrics records fallback and correlation metrics
func WithServiceMetrics(m *infrastructure.BusinessMetrics) StockServiceOption {
	return func(s *StockService) { s.metrics = m }
}

// WithServiceLogger sets the service logger
func WithServiceLogger(l *slog.Logger) StockServiceOption {
	return func(s *StockService) { s.logger = l }
}

// WithServiceClock replaces time.Now for report timestamps
func WithServiceClock(now func() time.Time) StockServiceOption {
	return func(s *StockService) { s.now = now }
}

// NewStockService creates the stock service. A nil fallback, or fallback
// disabled in config, makes upstream failures visible to callers.
func NewStockService(cfg *config.Config, upstream Upstream, fallback FallbackSource, opts ...StockServiceOption) *StockService {
	s := &StockService{
		upstream:  upstream,
		analytics: cfg.Analytics,
		builder: analytics.NewBuilder(analytics.Config{
			SymbolLimit: cfg.Analytics.SymbolLimit,
			Minutes:     cfg.Analytics.DefaultMinutes,
		}),
		limit:  cfg.Upstream.MaxConcurrency,
		logger: slog.Default(),
		now:    time.Now,
	}
	if cfg.Fallback.Enabled {
		s.fallback = fallback
	}
	if s.limit < 1 {
		s.limit = 1
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = infrastructure.WithComponent(s.logger, "stock_service")

	s.logger.Info("StockService initialized",
		slog.Int("symbol_limit", s.builder.Config().SymbolLimit),
		slog.Int("default_minutes", s.builder.Config().Minutes),
		slog.Int("max_concurrency", s.limit),
		slog.Bool("fallback_enabled", s.fallback != nil))

	return s
}

// Directory returns the stock directory in provider order
func (s *StockService) Directory(ctx context.Context) (domain.StockDirectory, domain.DataSource, error) {
	dir, err := s.upstream.Stocks(ctx)
	if err == nil {
		return dir, domain.SourceUpstream, nil
	}
	if ferr := s.substitute(ctx, stockapi.EndpointStocks, "", err); ferr != nil {
		return domain.StockDirectory{}, "", ferr
	}
	return s.fallback.Stocks(), domain.SourceFallback, nil
}

// History returns a ticker's price data over the last minutes, in the
// shape the API answered with
func (s *StockService) History(ctx context.Context, ticker string, minutes int) (analytics.PriceData, domain.DataSource, error) {
	ticker, err := s.checkTicker(ticker)
	if err != nil {
		return analytics.NoData(), "", err
	}
	if err := s.checkMinutes(minutes); err != nil {
		return analytics.NoData(), "", err
	}
	return s.history(ctx, ticker, minutes)
}

// Current returns a ticker's latest price reading
func (s *StockService) Current(ctx context.Context, ticker string) (domain.PricePoint, domain.DataSource, error) {
	ticker, err := s.checkTicker(ticker)
	if err != nil {
		return domain.PricePoint{}, "", err
	}

	p, err := s.upstream.Current(ctx, ticker)
	if err == nil {
		return p, domain.SourceUpstream, nil
	}
	if ferr := s.substitute(ctx, stockapi.EndpointCurrent, ticker, err); ferr != nil {
		return domain.PricePoint{}, "", ferr
	}
	return s.fallback.Current(ticker), domain.SourceFallback, nil
}

// CorrelationData fetches the price series the correlation view is built from
func (s *StockService) CorrelationData(ctx context.Context, req CorrelationRequest) (*CorrelationData, error) {
	minutes := req.Minutes
	if minutes == 0 {
		minutes = s.builder.Config().Minutes
	}
	if err := s.checkMinutes(minutes); err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}

	symbols, source, err := s.selectSymbols(ctx, req)
	if err != nil {
		return nil, err
	}

	series, seriesSource, err := s.fetchAll(ctx, symbols, minutes)
	if err != nil {
		return nil, err
	}

	return &CorrelationData{
		Symbols: symbols,
		Minutes: minutes,
		Series:  series,
		Source:  source.Merge(seriesSource),
	}, nil
}

// Correlations builds the correlation matrix and statistics for a request
func (s *StockService) Correlations(ctx context.Context, req CorrelationRequest) (*domain.CorrelationReport, error) {
	data, err := s.CorrelationData(ctx, req)
	if err != nil {
		return nil, err
	}

	result := s.builder.Build(data.Series, data.Symbols)
	infrastructure.RecordCorrelationBuild(ctx, s.metrics, len(data.Symbols), string(data.Source))

	s.logger.InfoContext(ctx, "correlation report built",
		slog.Int("symbols", len(data.Symbols)),
		slog.Int("with_data", len(result.Statistics)),
		slog.Int("minutes", data.Minutes),
		slog.String("source", string(data.Source)))

	return &domain.CorrelationReport{
		Symbols:      data.Symbols,
		Minutes:      data.Minutes,
		Correlations: result.Correlations,
		Statistics:   result.Statistics,
		Strengths:    analytics.ClassifyMatrix(result.Correlations),
		GeneratedAt:  s.now().UTC(),
		Source:       data.Source,
	}, nil
}

// Analyze returns the stock page view of one ticker: current price, history,
// change over the window, average and statistics.
func (s *StockService) Analyze(ctx context.Context, ticker string, minutes int) (*domain.StockAnalysis, error) {
	ticker, err := s.checkTicker(ticker)
	if err != nil {
		return nil, err
	}
	if minutes == 0 {
		minutes = s.analytics.AnalysisMinutes
	}
	if err := s.checkMinutes(minutes); err != nil {
		return nil, err
	}

	var (
		current       domain.PricePoint
		data          analytics.PriceData
		name          string
		currentSource domain.DataSource
		historySource domain.DataSource
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, currentSource, err = s.Current(gctx, ticker)
		return err
	})
	g.Go(func() error {
		var err error
		data, historySource, err = s.history(gctx, ticker, minutes)
		return err
	})
	g.Go(func() error {
		// The name is cosmetic; a failed directory lookup is not an error
		if dir, _, err := s.Directory(gctx); err == nil {
			if stock, ok := dir.Lookup(ticker); ok {
				name = stock.Name
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	history := analytics.Normalize(data).Series
	analysis := &domain.StockAnalysis{
		Symbol:  ticker,
		Name:    name,
		Minutes: minutes,
		Current: &current,
		History: history,
		Source:  currentSource.Merge(historySource),
	}

	// change and average follow the answered shape; a single reading is neutral
	change, err := analytics.ComputeChange(data)
	if err != nil {
		if errors.Is(err, analytics.ErrZeroBasePrice) {
			infrastructure.RecordAnomalousInput(ctx, s.metrics, "zero_base_price")
			infrastructure.WithError(infrastructure.WithSymbol(s.logger, ticker), err).
				WarnContext(ctx, "anomalous price history")
			return nil, apierrors.NewAnomalousInputError("price change of "+ticker, fmt.Errorf("%w: %w", ErrAnomalousPrice, err)).
				WithContext("symbol", ticker)
		}
		return nil, err
	}
	analysis.Change = change

	if avg, ok := analytics.AveragePrice(data); ok {
		analysis.AveragePrice = &avg
	}
	if len(history) > 0 {
		stats := analytics.Describe(history.Prices())
		analysis.Statistics = &stats
	}

	return analysis, nil
}

// Intervals returns the time windows offered to clients, in minutes
func (s *StockService) Intervals() []int {
	out := make([]int, len(s.analytics.Intervals))
	copy(out, s.analytics.Intervals)
	return out
}

func (s *StockService) history(ctx context.Context, ticker string, minutes int) (analytics.PriceData, domain.DataSource, error) {
	data, err := s.upstream.History(ctx, ticker, minutes)
	if err == nil {
		return data, domain.SourceUpstream, nil
	}
	if ferr := s.substitute(ctx, stockapi.EndpointHistory, ticker, err); ferr != nil {
		return analytics.NoData(), "", ferr
	}
	return analytics.Series(s.fallback.History(ticker, minutes)), domain.SourceFallback, nil
}

// fetchAll fetches every symbol's history concurrently and joins before
// returning. Symbols the API does not know are left out of the map.
func (s *StockService) fetchAll(ctx context.Context, symbols []string, minutes int) (map[string]domain.PriceSeries, domain.DataSource, error) {
	var (
		mu      sync.Mutex
		data    = make(map[string]domain.PriceSeries, len(symbols))
		sources = make([]domain.DataSource, len(symbols))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)

	for i, symbol := range symbols {
		g.Go(func() error {
			pd, source, err := s.history(gctx, symbol, minutes)
			if errors.Is(err, ErrTickerNotFound) {
				s.logger.DebugContext(gctx, "no data for symbol", slog.String("symbol", symbol))
				return nil
			}
			if err != nil {
				return err
			}

			mu.Lock()
			data[symbol] = analytics.Normalize(pd).Series
			mu.Unlock()
			sources[i] = source
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	var source domain.DataSource
	for _, src := range sources {
		source = source.Merge(src)
	}
	if source == "" {
		source = domain.SourceUpstream
	}
	return data, source, nil
}

func (s *StockService) selectSymbols(ctx context.Context, req CorrelationRequest) ([]string, domain.DataSource, error) {
	if len(req.Symbols) > 0 {
		var symbols []string
		for _, raw := range req.Symbols {
			sym, err := s.checkTicker(raw)
			if err != nil {
				return nil, "", err
			}
			symbols = append(symbols, sym)
		}
		return analytics.UniqueSymbols(symbols), "", nil
	}

	dir, source, err := s.Directory(ctx)
	if err != nil {
		return nil, "", err
	}

	builder := s.builder
	if req.Limit > 0 {
		builder = analytics.NewBuilder(analytics.Config{SymbolLimit: req.Limit, Minutes: builder.Config().Minutes})
	}
	return builder.SelectSymbols(dir), source, nil
}

// substitute decides whether an upstream failure can be replaced by fallback
// data. It returns nil when the caller should use the fallback.
func (s *StockService) substitute(ctx context.Context, endpoint, ticker string, cause error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if s.fallback == nil {
		if errors.Is(cause, stockapi.ErrNotFound) {
			return fmt.Errorf("%w: %s: %w", ErrTickerNotFound, ticker, cause)
		}
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, cause)
	}

	infrastructure.RecordFallbackSubstitution(ctx, s.metrics, endpoint)
	infrastructure.WithError(infrastructure.WithSymbol(s.logger, ticker), cause).
		WarnContext(ctx, "using fallback data", slog.String("endpoint", endpoint))
	return nil
}

func (s *StockService) checkTicker(ticker string) (string, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return "", fmt.Errorf("%w: empty ticker", ErrInvalidTicker)
	}
	return ticker, nil
}

func (s *StockService) checkMinutes(minutes int) error {
	if minutes < 1 || minutes > s.analytics.MaxMinutes {
		return fmt.Errorf("%w: minutes must be between 1 and %d, got %d", ErrInvalidInput, s.analytics.MaxMinutes, minutes)
	}
	return nil
}
