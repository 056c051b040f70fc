package analytics

import (
	"math"

	"stockpulse/pkg/contracts/domain"
)

// Average returns the arithmetic mean, or 0 for an empty slice.
// Callers that must distinguish "no data" from a zero mean check the length first.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StandardDeviation returns the population standard deviation (divides by N).
// Fewer than two values have no deviation and yield 0.
func StandardDeviation(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	mean := Average(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n))
}

// Describe computes the statistics entry for a series
func Describe(values []float64) domain.Statistics {
	return domain.Statistics{
		Average: Average(values),
		StdDev:  StandardDeviation(values),
	}
}

// AveragePrice returns the mean price of the data.
// A reading yields its own price; an empty series or absent data yields false.
func AveragePrice(d PriceData) (float64, bool) {
	switch d.kind {
	case KindReading:
		return d.reading.Price, true
	case KindSeries:
		if len(d.series) == 0 {
			return 0, false
		}
		return Average(d.series.Prices()), true
	default:
		return 0, false
	}
}
