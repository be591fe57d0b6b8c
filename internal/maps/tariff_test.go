package maps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCalculator() *TariffCalculator {
	return &TariffCalculator{
		BaseBoarding: 1500,
		PerKm:        450,
		PerMinute:    80,
		TolerancePct: 15,
	}
}

func TestSuggestLinearModel(t *testing.T) {
	tc := testCalculator()

	tariff, err := tc.Suggest(10, 30, nil, nil)
	require.NoError(t, err)

	// 1500 + 450*10 + 80*30 = 8400
	assert.Equal(t, 8400.0, tariff.SuggestedTariff)
	assert.Equal(t, 1500.0, tariff.Breakdown.BaseBoarding)
	assert.Equal(t, 4500.0, tariff.Breakdown.DistanceComponent)
	assert.Equal(t, 2400.0, tariff.Breakdown.DurationComponent)
	assert.Equal(t, 7140.0, tariff.Range.Min)
	assert.Equal(t, 9660.0, tariff.Range.Max)
}

func TestSuggestDemandAndOccupancy(t *testing.T) {
	tc := testCalculator()

	demand := 1.5
	occupancy := 3
	tariff, err := tc.Suggest(10, 30, &demand, &occupancy)
	require.NoError(t, err)

	// 8400 * 1.5 / 3 = 4200
	assert.Equal(t, 4200.0, tariff.SuggestedTariff)
}

func TestSuggestOccupancyClampedToOne(t *testing.T) {
	tc := testCalculator()

	occupancy := 0
	tariff, err := tc.Suggest(10, 30, nil, &occupancy)
	require.NoError(t, err)
	assert.Equal(t, 8400.0, tariff.SuggestedTariff)
}

func TestSuggestZeroInputs(t *testing.T) {
	tc := testCalculator()

	tariff, err := tc.Suggest(0, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, tariff.SuggestedTariff)
}

func TestSuggestInvalidInputs(t *testing.T) {
	tc := testCalculator()

	_, err := tc.Suggest(-1, 10, nil, nil)
	assert.ErrorIs(t, err, ErrTariffInput)

	_, err = tc.Suggest(10, -1, nil, nil)
	assert.ErrorIs(t, err, ErrTariffInput)

	demand := 0.5
	_, err = tc.Suggest(10, 10, &demand, nil)
	assert.ErrorIs(t, err, ErrTariffInput)
}

func TestWithinBand(t *testing.T) {
	tc := testCalculator()

	assert.True(t, tc.WithinBand(8400, 8400))
	assert.True(t, tc.WithinBand(7140, 8400))
	assert.True(t, tc.WithinBand(9660, 8400))
	assert.False(t, tc.WithinBand(7000, 8400))
	assert.False(t, tc.WithinBand(10000, 8400))
}
