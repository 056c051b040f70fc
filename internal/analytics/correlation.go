package analytics

import "math"

// Correlation returns the Pearson correlation coefficient of x and y.
//
// Elements are paired by position, not by timestamp. Mismatched lengths,
// fewer than two points, or a constant series all return exactly 0. The
// result is not clamped, so rounding may put it a hair outside [-1, 1].
func Correlation(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}

	meanX := Average(x)
	meanY := Average(y)

	var num, varX, varY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		num += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0
	}

	r := num / math.Sqrt(varX*varY)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
