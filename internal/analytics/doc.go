// Package analytics is the correlation and statistics engine behind the stock dashboard.
//
// Everything in this package is a pure function of its inputs: no I/O, no
// shared mutable state, no goroutines. Fetching, fallback substitution and
// fan-out live in the services and stockapi packages; by the time data
// arrives here it is already in memory.
//
// # Core Components
//
//  1. PriceData: a tagged variant for "a single current reading" versus "a
//     series of readings". Normalize collapses both into a canonical series
//     while keeping the original shape in Normalized.Kind.
//  2. Average and StandardDeviation: mean and population standard deviation.
//  3. Correlation: Pearson correlation with positional pairing.
//  4. BuildCorrelations and Builder: the full correlation matrix plus a
//     statistics table over an ordered symbol set.
//  5. ComputeChange: absolute and percentage change between the first and
//     last chronological points.
//  6. AveragePrice and ClassifyCorrelation: dashboard helpers.
//
// # Degenerate Input
//
// Empty series, single points, constant series and length mismatches never
// produce errors or NaN. They yield 0 (or a nil result) instead. The one
// input that is reported as an error is a zero base price in ComputeChange,
// returned as ErrZeroBasePrice.
//
// # Positional Pairing
//
// Correlation pairs x[i] with y[i] regardless of the timestamps behind them.
// Two series sampled at different moments are therefore compared by index,
// not by time. Callers that need time alignment must align the series first.
//
// # Usage Example
//
//	builder := analytics.NewBuilder(analytics.Config{SymbolLimit: 5, Minutes: 60})
//	symbols := builder.SelectSymbols(directory)
//
//	result := builder.Build(seriesBySymbol, symbols)
//	fmt.Println(result.Correlations["NVDA"]["AMD"], result.Statistics["NVDA"].StdDev)
//
//	change, err := analytics.ComputeChange(analytics.Series(seriesBySymbol["NVDA"]))
//	if errors.Is(err, analytics.ErrZeroBasePrice) {
//	    // anomalous quote, surface to caller
//	}
package analytics
