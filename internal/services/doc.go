// Package services implements the business logic layer of StockPulse.
// It sits between the HTTP handlers and the stock price API client, and is
// the only place that decides when synthetic fallback data replaces upstream
// data.
//
// # Services
//
//	- StockService: directory, history and current price lookups with
//	  fallback, correlation reports and single stock analysis
//	- HealthService: liveness, readiness and upstream status
//
// # Fallback
//
// Every upstream failure is absorbed per call: a correlation report over
// five symbols can mix upstream and synthetic series, in which case its
// Source is "mixed". With fallback disabled, failures surface as
// ErrUpstreamUnavailable, and tickers unknown to the API as ErrTickerNotFound.
//
// # Concurrency
//
// Correlation data is fetched with one goroutine per symbol, bounded by the
// configured upstream concurrency, and joined before the matrix is built:
//
//	g, gctx := errgroup.WithContext(ctx)
//	g.SetLimit(s.limit)
//	for _, symbol := range symbols {
//	    g.Go(func() error { ... })
//	}
//	err := g.Wait()
//
// # Testing
//
// Services are tested by mocking the upstream:
//
//	upstream := new(MockUpstream)
//	upstream.On("History", mock.Anything, "NVDA", 60).Return(series, nil)
//	svc := NewStockService(cfg, upstream, fallback)
package services
