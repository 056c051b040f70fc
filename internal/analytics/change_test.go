package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/pkg/contracts/domain"
)

func TestComputeChange(t *testing.T) {
	t0 := time.Date(2025, 5, 8, 4, 0, 0, 0, time.UTC)
	t1 := t0.Add(5 * time.Minute)

	tests := []struct {
		name     string
		data     PriceData
		expected *domain.PriceChange
	}{
		{
			name:     "rise",
			data:     Series(domain.PriceSeries{{Price: 100, ObservedAt: t0}, {Price: 150, ObservedAt: t1}}),
			expected: &domain.PriceChange{Amount: 50, Percentage: 50, IsPositive: true},
		},
		{
			name:     "fall",
			data:     Series(domain.PriceSeries{{Price: 100, ObservedAt: t0}, {Price: 50, ObservedAt: t1}}),
			expected: &domain.PriceChange{Amount: 50, Percentage: 50, IsPositive: false},
		},
		{
			name:     "unsorted input is ordered by time",
			data:     Series(domain.PriceSeries{{Price: 150, ObservedAt: t1}, {Price: 100, ObservedAt: t0}}),
			expected: &domain.PriceChange{Amount: 50, Percentage: 50, IsPositive: true},
		},
		{
			name:     "flat counts as positive",
			data:     Series(domain.PriceSeries{{Price: 80, ObservedAt: t0}, {Price: 80, ObservedAt: t1}}),
			expected: &domain.PriceChange{Amount: 0, Percentage: 0, IsPositive: true},
		},
		{
			name:     "single reading is a neutral placeholder",
			data:     Reading(domain.PricePoint{Price: 100, ObservedAt: t0}),
			expected: &domain.PriceChange{Amount: 0, Percentage: 0, IsPositive: true},
		},
		{
			name:     "length-1 series has no change",
			data:     Series(domain.PriceSeries{{Price: 100, ObservedAt: t0}}),
			expected: nil,
		},
		{
			name:     "empty series",
			data:     Series(nil),
			expected: nil,
		},
		{
			name:     "absent",
			data:     NoData(),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, err := ComputeChange(tt.data)
			require.NoError(t, err)
			if tt.expected == nil {
				assert.Nil(t, change)
				return
			}
			require.NotNil(t, change)
			assert.InDelta(t, tt.expected.Amount, change.Amount, tolerance)
			assert.InDelta(t, tt.expected.Percentage, change.Percentage, tolerance)
			assert.Equal(t, tt.expected.IsPositive, change.IsPositive)
		})
	}
}

func TestComputeChange_ZeroBasePrice(t *testing.T) {
	t0 := time.Date(2025, 5, 8, 4, 0, 0, 0, time.UTC)
	data := Series(domain.PriceSeries{
		{Price: 10, ObservedAt: t0.Add(time.Minute)},
		{Price: 0, ObservedAt: t0},
	})

	change, err := ComputeChange(data)
	assert.Nil(t, change)
	assert.ErrorIs(t, err, ErrZeroBasePrice)
}

func TestComputeChange_DoesNotMutateInput(t *testing.T) {
	t0 := time.Date(2025, 5, 8, 4, 0, 0, 0, time.UTC)
	input := domain.PriceSeries{
		{Price: 3, ObservedAt: t0.Add(2 * time.Minute)},
		{Price: 1, ObservedAt: t0},
		{Price: 2, ObservedAt: t0.Add(time.Minute)},
	}
	snapshot := input.Clone()

	_, err := ComputeChange(Series(input))
	require.NoError(t, err)
	assert.Equal(t, snapshot, input)
}

func TestComputeChange_ReadingVersusLengthOneSeries(t *testing.T) {
	// Both normalize to one point, but only the reading renders a placeholder
	p := domain.PricePoint{Price: 42, ObservedAt: time.Date(2025, 5, 8, 4, 0, 0, 0, time.UTC)}

	assert.Equal(t, len(Normalize(Reading(p)).Series), len(Normalize(Series(domain.PriceSeries{p})).Series))

	fromReading, err := ComputeChange(Reading(p))
	require.NoError(t, err)
	assert.NotNil(t, fromReading)

	fromSeries, err := ComputeChange(Series(domain.PriceSeries{p}))
	require.NoError(t, err)
	assert.Nil(t, fromSeries)
}
