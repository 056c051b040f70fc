package services

import "errors"

// Stock service errors
var (
	// Input errors
	ErrInvalidTicker = errors.New("invalid ticker")
	ErrInvalidInput  = errors.New("invalid input")

	// Data errors
	ErrTickerNotFound = errors.New("ticker not found")
	ErrAnomalousPrice = errors.New("anomalous price data")

	// Upstream errors, only surfaced when fallback is disabled
	ErrUpstreamUnavailable = errors.New("stock price API unavailable")
)
