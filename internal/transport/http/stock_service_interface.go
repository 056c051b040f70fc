package http

import (
	"context"

	"stockpulse/internal/analytics"
	"stockpulse/internal/services"
	"stockpulse/pkg/contracts/domain"
)

// StockServiceInterface defines the stock operations the handlers need
type StockServiceInterface interface {
	Directory(ctx context.Context) (domain.StockDirectory, domain.DataSource, error)
	History(ctx context.Context, ticker string, minutes int) (analytics.PriceData, domain.DataSource, error)
	Current(ctx context.Context, ticker string) (domain.PricePoint, domain.DataSource, error)
	CorrelationData(ctx context.Context, req services.CorrelationRequest) (*services.CorrelationData, error)
	Correlations(ctx context.Context, req services.CorrelationRequest) (*domain.CorrelationReport, error)
	Analyze(ctx context.Context, ticker string, minutes int) (*domain.StockAnalysis, error)
	Intervals() []int
}
