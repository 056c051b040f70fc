package stockapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/config"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestFallback(now time.Time, seed int64) *Fallback {
	return NewFallback(config.FallbackConfig{Enabled: true, Seed: seed, Resolution: time.Minute}, WithClock(fixedClock(now)))
}

func TestSampleDirectory(t *testing.T) {
	dir := SampleDirectory()

	require.Len(t, dir.Stocks, 20)
	assert.Equal(t, "AMD", dir.Stocks[0].Symbol)
	assert.Equal(t, "Advanced Micro Devices, Inc.", dir.Stocks[0].Name)
	assert.Equal(t, "V", dir.Stocks[19].Symbol)
	assert.Equal(t, []string{"AMD", "GOOGL", "GOOG", "AMZN", "AMGN"}, dir.Top(5))

	// callers get a copy
	dir.Stocks[0].Symbol = "XXX"
	assert.Equal(t, "AMD", SampleDirectory().Stocks[0].Symbol)
}

func TestFallback_HistoryShape(t *testing.T) {
	now := time.Date(2025, 5, 8, 4, 26, 27, 0, time.UTC)
	f := newTestFallback(now, 0)

	tests := []struct {
		minutes  int
		expected int
	}{
		{minutes: 60, expected: 10},
		{minutes: 10, expected: 10},
		{minutes: 3, expected: 3},
		{minutes: 1, expected: 1},
		{minutes: 0, expected: 0},
		{minutes: -5, expected: 0},
	}

	for _, tt := range tests {
		series := f.History("NVDA", tt.minutes)
		require.Len(t, series, tt.expected, "minutes=%d", tt.minutes)
		assert.NotNil(t, series)

		anchor := now.Truncate(time.Minute)
		for i, p := range series {
			assert.True(t, p.ObservedAt.Equal(anchor.Add(-time.Duration(i)*FallbackStep)), "newest first, 5 minute steps")
			assert.Greater(t, p.Price, 0.0)
			assert.Less(t, p.Price, 1000.0)
		}
	}
}

func TestFallback_Deterministic(t *testing.T) {
	now := time.Date(2025, 5, 8, 4, 26, 27, 0, time.UTC)

	a := newTestFallback(now, 7).History("TSLA", 60)
	b := newTestFallback(now.Add(20*time.Second), 7).History("TSLA", 60)
	assert.Equal(t, a, b, "same resolution window gives identical data")

	c := newTestFallback(now.Add(time.Minute), 7).History("TSLA", 60)
	assert.NotEqual(t, a[0].Price, c[0].Price, "next window moves on")

	d := newTestFallback(now, 8).History("TSLA", 60)
	assert.NotEqual(t, a[0].Price, d[0].Price, "seed changes the walk")

	e := newTestFallback(now, 7).History("AMD", 60)
	assert.NotEqual(t, a[0].Price, e[0].Price, "tickers differ")
}

func TestFallback_CurrentMatchesNewestHistoryPoint(t *testing.T) {
	f := newTestFallback(time.Date(2025, 5, 8, 4, 0, 0, 0, time.UTC), 0)

	current := f.Current("NVDA")
	short := f.History("NVDA", 3)
	long := f.History("NVDA", 60)

	assert.Equal(t, current, short[0])
	assert.Equal(t, short, long[:3], "shorter windows are a prefix of longer ones")
}

func TestFallback_LongWalkStaysInRange(t *testing.T) {
	f := newTestFallback(time.Date(2025, 5, 8, 4, 0, 0, 0, time.UTC), 0)

	for _, s := range SampleDirectory().Symbols() {
		prices := f.walk(s, f.anchor(), 5000)
		for _, p := range prices {
			require.Greater(t, p, 0.0, s)
			require.Less(t, p, 1000.0, s)
		}
	}
}

func TestNewFallback_DefaultResolution(t *testing.T) {
	f := NewFallback(config.FallbackConfig{})
	assert.Equal(t, time.Minute, f.resolution)
	assert.NotNil(t, f.now)
}
