package analytics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"stockpulse/pkg/contracts/domain"
)

// ErrZeroBasePrice is returned when the earliest price of a series is zero.
// A zero-priced stock is anomalous; the percentage change is undefined.
var ErrZeroBasePrice = errors.New("zero base price")

// ComputeChange derives the price change of the data.
//
// A single reading has no history and returns a neutral placeholder
// (0, 0, positive). A series with fewer than two points, or absent data,
// returns nil with no error. Otherwise the series is sorted by observation
// time and the first and last points are compared.
func ComputeChange(d PriceData) (*domain.PriceChange, error) {
	switch d.kind {
	case KindReading:
		return &domain.PriceChange{Amount: 0, Percentage: 0, IsPositive: true}, nil
	case KindSeries:
		return seriesChange(d.series)
	default:
		return nil, nil
	}
}

func seriesChange(series domain.PriceSeries) (*domain.PriceChange, error) {
	if len(series) < 2 {
		return nil, nil
	}

	sorted := series.Clone()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ObservedAt.Before(sorted[j].ObservedAt)
	})

	first := sorted[0]
	last := sorted[len(sorted)-1]

	if first.Price == 0 {
		return nil, fmt.Errorf("%w: first point at %s", ErrZeroBasePrice, first.ObservedAt.Format(time.RFC3339))
	}

	diff := last.Price - first.Price
	return &domain.PriceChange{
		Amount:     math.Abs(diff),
		Percentage: math.Abs(diff/first.Price) * 100,
		IsPositive: diff >= 0,
	}, nil
}
