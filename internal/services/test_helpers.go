package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"stockpulse/internal/analytics"
	"stockpulse/internal/monitor"
	"stockpulse/pkg/contracts/domain"
)

// MockUpstream is a mock for the Upstream interface
type MockUpstream struct {
	mock.Mock
}

func (m *MockUpstream) Stocks(ctx context.Context) (domain.StockDirectory, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.StockDirectory), args.Error(1)
}

// History accepts either a domain.PriceSeries or an analytics.PriceData return value
func (m *MockUpstream) History(ctx context.Context, ticker string, minutes int) (analytics.PriceData, error) {
	args := m.Called(ctx, ticker, minutes)
	switch v := args.Get(0).(type) {
	case analytics.PriceData:
		return v, args.Error(1)
	case domain.PriceSeries:
		return analytics.Series(v), args.Error(1)
	default:
		return analytics.NoData(), args.Error(1)
	}
}

func (m *MockUpstream) Current(ctx context.Context, ticker string) (domain.PricePoint, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(domain.PricePoint), args.Error(1)
}

// MockStatusProvider is a mock for UpstreamStatusProvider
type MockStatusProvider struct {
	mock.Mock
}

func (m *MockStatusProvider) Status() monitor.Status {
	args := m.Called()
	return args.Get(0).(monitor.Status)
}
