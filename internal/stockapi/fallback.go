package stockapi

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"stockpulse/internal/config"
	"stockpulse/pkg/contracts/domain"
)

const (
	// MaxFallbackPoints caps the synthetic history length
	MaxFallbackPoints = 10
	// FallbackStep is the spacing between synthetic history points
	FallbackStep = 5 * time.Minute

	maxFallbackPrice   = 1000.0
	fallbackVolatility = 0.01
)

var sampleStocks = []domain.Stock{
	{Name: "Advanced Micro Devices, Inc.", Symbol: "AMD"},
	{Name: "Alphabet Inc. Class A", Symbol: "GOOGL"},
	{Name: "Alphabet Inc. Class C", Symbol: "GOOG"},
	{Name: "Amazon.com, Inc.", Symbol: "AMZN"},
	{Name: "Amgen Inc.", Symbol: "AMGN"},
	{Name: "Apple Inc.", Symbol: "AAPL"},
	{Name: "Berkshire Hathaway Inc.", Symbol: "BRKB"},
	{Name: "Booking Holdings Inc.", Symbol: "BKNG"},
	{Name: "Broadcom Inc.", Symbol: "AVGO"},
	{Name: "CSX Corporation", Symbol: "CSX"},
	{Name: "Eli Lilly and Company", Symbol: "LLY"},
	{Name: "Marriott International, Inc.", Symbol: "MAR"},
	{Name: "Marvell Technology, Inc.", Symbol: "MRVL"},
	{Name: "Meta Platforms, Inc.", Symbol: "META"},
	{Name: "Microsoft Corporation", Symbol: "MSFT"},
	{Name: "Nvidia Corporation", Symbol: "NVDA"},
	{Name: "PayPal Holdings, Inc.", Symbol: "PYPL"},
	{Name: "TSMC", Symbol: "2330TW"},
	{Name: "Tesla, Inc.", Symbol: "TSLA"},
	{Name: "Visa Inc.", Symbol: "V"},
}

// SampleDirectory returns the built-in stock list served when the API is down
func SampleDirectory() domain.StockDirectory {
	stocks := make([]domain.Stock, len(sampleStocks))
	copy(stocks, sampleStocks)
	return domain.StockDirectory{Stocks: stocks}
}

// Fallback generates deterministic synthetic data in the shapes the API returns.
//
// Every ticker gets a seeded random walk anchored at the current time truncated
// to the configured resolution. History for any window is a prefix of the same
// walk, newest first, so Current always equals the newest history point.
type Fallback struct {
	seed       int64
	resolution time.Duration
	now        func() time.Time
}

// FallbackOption configures a Fallback
type FallbackOption func(*Fallback)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) FallbackOption {
	return func(f *Fallback) { f.now = now }
}

// NewFallback creates a generator from fallback configuration
func NewFallback(cfg config.FallbackConfig, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		seed:       cfg.Seed,
		resolution: cfg.Resolution,
		now:        time.Now,
	}
	if f.resolution <= 0 {
		f.resolution = time.Minute
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Stocks returns the sample directory
func (f *Fallback) Stocks() domain.StockDirectory {
	return SampleDirectory()
}

// History returns min(10, minutes) points spaced five minutes apart, newest first
func (f *Fallback) History(ticker string, minutes int) domain.PriceSeries {
	n := min(MaxFallbackPoints, minutes)
	if n <= 0 {
		return domain.PriceSeries{}
	}

	anchor := f.anchor()
	prices := f.walk(ticker, anchor, n)

	series := make(domain.PriceSeries, n)
	for i, p := range prices {
		series[i] = domain.PricePoint{
			Price:      p,
			ObservedAt: anchor.Add(-time.Duration(i) * FallbackStep),
		}
	}
	return series
}

// Current returns a single reading at the anchor time
func (f *Fallback) Current(ticker string) domain.PricePoint {
	anchor := f.anchor()
	return domain.PricePoint{
		Price:      f.walk(ticker, anchor, 1)[0],
		ObservedAt: anchor,
	}
}

func (f *Fallback) anchor() time.Time {
	return f.now().UTC().Truncate(f.resolution)
}

// walk returns n prices going backwards in time from the anchor
func (f *Fallback) walk(ticker string, anchor time.Time, n int) []float64 {
	rng := rand.New(rand.NewSource(f.seedFor(ticker, anchor)))

	price := positivePrice(rng)
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = price

		next := price + rng.NormFloat64()*fallbackVolatility*price
		// Keep the walk inside (0, 1000)
		if next <= 0 || next >= maxFallbackPrice {
			next = price * 0.99
		}
		price = next
	}
	return prices
}

func (f *Fallback) seedFor(ticker string, anchor time.Time) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%d", ticker, anchor.Unix(), f.seed)
	return int64(h.Sum64())
}

func positivePrice(rng *rand.Rand) float64 {
	for {
		if p := rng.Float64() * maxFallbackPrice; p > 0 {
			return p
		}
	}
}
