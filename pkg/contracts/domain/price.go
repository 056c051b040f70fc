package domain

import (
	"time"
)

// PricePoint is one sampled price of a stock at a point in time.
// JSON field names follow the upstream evaluation-service API.
type PricePoint struct {
	Price      float64   `json:"price" validate:"gte=0"`
	ObservedAt time.Time `json:"lastUpdatedAt"`
}

// PriceSeries is an ordered sequence of price points for one symbol.
// The order is the order the provider returned; it is not guaranteed to be chronological.
type PriceSeries []PricePoint

// Prices returns the raw price values in stored order
func (s PriceSeries) Prices() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Price
	}
	return values
}

// Clone returns an independent copy of the series
func (s PriceSeries) Clone() PriceSeries {
	if s == nil {
		return nil
	}
	out := make(PriceSeries, len(s))
	copy(out, s)
	return out
}

// PriceChange is the absolute and percentage move between the first and
// last chronological points of a series
type PriceChange struct {
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	IsPositive bool    `json:"isPositive"`
}

// Statistics holds descriptive statistics for one symbol
type Statistics struct {
	Average float64 `json:"avg"`
	StdDev  float64 `json:"stdDev"`
}

// CorrelationMatrix maps symbol A to symbol B to the correlation of their price series
type CorrelationMatrix map[string]map[string]float64

// StatisticsTable maps a symbol to its statistics. Symbols without data have no entry.
type StatisticsTable map[string]Statistics

// DataSource describes where a response's price data came from
type DataSource string

const (
	SourceUpstream DataSource = "upstream"
	SourceFallback DataSource = "fallback"
	SourceMixed    DataSource = "mixed"
)

// Merge combines two sources; any disagreement yields SourceMixed
func (s DataSource) Merge(other DataSource) DataSource {
	switch {
	case s == "":
		return other
	case other == "" || s == other:
		return s
	default:
		return SourceMixed
	}
}
