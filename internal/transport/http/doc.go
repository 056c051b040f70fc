// Package http implements the HTTP handlers of the StockPulse API.
//
// Handlers stay thin: they parse and validate the request, call the stock
// or health service and render the result. Service errors are mapped to
// APIError values and rendered as RFC 7807 problems by the shared
// errors.ErrorHandler.
//
// # Routes
//
// Proxy routes keep the upstream evaluation-service shapes so existing
// dashboard clients work unchanged:
//
//	GET /api/stocks                      {"stocks": {name: symbol}}
//	GET /api/stocks/{ticker}             {"stock": point}
//	GET /api/stocks/{ticker}?minutes=N   [point, ...]
//	GET /api/correlations                {symbol: [point, ...]}
//
// Analytics routes wrap their payload in {"status": "success", "data": ...}:
//
//	GET /api/analytics/correlations
//	GET /api/analytics/correlations/export
//	GET /api/analytics/stocks/{ticker}
//	GET /api/analytics/intervals
//
// Every response carrying price data sets X-Data-Source to upstream,
// fallback or mixed.
package http
