package analytics

import (
	"stockpulse/pkg/contracts/domain"
)

const (
	// DefaultSymbolLimit is how many directory symbols enter correlation analysis
	DefaultSymbolLimit = 5
	// DefaultMinutes is the history window used for correlation
	DefaultMinutes = 60
)

// Result is the output of a matrix build
type Result struct {
	Correlations domain.CorrelationMatrix `json:"correlations"`
	Statistics   domain.StatisticsTable   `json:"statistics"`
}

// BuildCorrelations computes the correlation matrix and statistics table for
// the requested symbols.
//
// The matrix is square over exactly the (de-duplicated) symbol set. A symbol
// with no series, or an empty one, gets 0 in every cell of its row and
// column and no statistics entry. Diagonal cells of symbols with data are 1.
func BuildCorrelations(data map[string]domain.PriceSeries, symbols []string) Result {
	symbols = UniqueSymbols(symbols)

	prices := make(map[string][]float64, len(symbols))
	stats := make(domain.StatisticsTable, len(symbols))
	for _, symbol := range symbols {
		series, ok := data[symbol]
		if !ok || len(series) == 0 {
			continue
		}
		values := series.Prices()
		prices[symbol] = values
		stats[symbol] = Describe(values)
	}

	matrix := make(domain.CorrelationMatrix, len(symbols))
	for _, a := range symbols {
		matrix[a] = make(map[string]float64, len(symbols))
	}

	for i, a := range symbols {
		xa, okA := prices[a]
		for j := i; j < len(symbols); j++ {
			b := symbols[j]
			xb, okB := prices[b]

			var v float64
			switch {
			case !okA || !okB:
				v = 0
			case i == j:
				v = 1
			default:
				v = Correlation(xa, xb)
			}

			matrix[a][b] = v
			matrix[b][a] = v
		}
	}

	return Result{Correlations: matrix, Statistics: stats}
}

// UniqueSymbols drops empty and duplicate symbols, keeping first occurrence order
func UniqueSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Config holds the knobs that used to be constants at call sites
type Config struct {
	SymbolLimit int
	Minutes     int
}

// DefaultConfig returns the dashboard defaults: top 5 symbols over 60 minutes
func DefaultConfig() Config {
	return Config{
		SymbolLimit: DefaultSymbolLimit,
		Minutes:     DefaultMinutes,
	}
}

// Builder builds correlation results with explicit configuration
type Builder struct {
	cfg Config
}

// NewBuilder creates a builder; non-positive fields fall back to defaults
func NewBuilder(cfg Config) *Builder {
	if cfg.SymbolLimit <= 0 {
		cfg.SymbolLimit = DefaultSymbolLimit
	}
	if cfg.Minutes <= 0 {
		cfg.Minutes = DefaultMinutes
	}
	return &Builder{cfg: cfg}
}

// Config returns the effective configuration
func (b *Builder) Config() Config {
	return b.cfg
}

// SelectSymbols picks the first SymbolLimit symbols in provider order
func (b *Builder) SelectSymbols(dir domain.StockDirectory) []string {
	return UniqueSymbols(dir.Top(b.cfg.SymbolLimit))
}

// Build runs BuildCorrelations
func (b *Builder) Build(data map[string]domain.PriceSeries, symbols []string) Result {
	return BuildCorrelations(data, symbols)
}
