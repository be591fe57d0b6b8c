package maps

import (
	"errors"
	"math"
	"os"
	"strconv"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/schemas"
)

// ErrTariffInput is returned for negative distances or durations and demand
// factors below 1.
var ErrTariffInput = errors.New("invalid tariff input")

// TariffCalculator maps distance and duration to a suggested fare per seat
// with a linear model. Coefficients are fixed by configuration.
type TariffCalculator struct {
	BaseBoarding float64
	PerKm        float64
	PerMinute    float64
	TolerancePct float64
}

// Default coefficients in Colombian pesos.
const (
	defaultBaseBoarding = 1500.0
	defaultPerKm        = 450.0
	defaultPerMinute    = 80.0
	defaultTolerance    = 15.0
)

// NewTariffCalculatorFromEnv reads TARIFF_BASE, TARIFF_PER_KM,
// TARIFF_PER_MIN and TARIFF_TOLERANCE_PCT, keeping defaults for unset or
// malformed values.
func NewTariffCalculatorFromEnv() *TariffCalculator {
	return &TariffCalculator{
		BaseBoarding: envFloat("TARIFF_BASE", defaultBaseBoarding),
		PerKm:        envFloat("TARIFF_PER_KM", defaultPerKm),
		PerMinute:    envFloat("TARIFF_PER_MIN", defaultPerMinute),
		TolerancePct: envFloat("TARIFF_TOLERANCE_PCT", defaultTolerance),
	}
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

// Suggest computes the suggested tariff, its breakdown and the tolerance
// band. demandFactor defaults to 1 and must be ≥ 1; occupancy below 1 is
// clamped to 1.
func (tc *TariffCalculator) Suggest(distanceKm, durationMinutes float64, demandFactor *float64, occupancy *int) (schemas.TariffDTO, error) {
	if distanceKm < 0 || durationMinutes < 0 {
		return schemas.TariffDTO{}, ErrTariffInput
	}

	demand := 1.0
	if demandFactor != nil {
		if *demandFactor < 1 {
			return schemas.TariffDTO{}, ErrTariffInput
		}
		demand = *demandFactor
	}

	seats := 1
	if occupancy != nil && *occupancy > 1 {
		seats = *occupancy
	}

	breakdown := schemas.TariffBreakdownDTO{
		BaseBoarding:      tc.BaseBoarding,
		DistanceComponent: tc.PerKm * distanceKm,
		DurationComponent: tc.PerMinute * durationMinutes,
	}

	suggested := math.Round((breakdown.BaseBoarding + breakdown.DistanceComponent + breakdown.DurationComponent) * demand / float64(seats))

	return schemas.TariffDTO{
		SuggestedTariff: suggested,
		Breakdown:       breakdown,
		Range: schemas.TariffRangeDTO{
			Min: math.Round(suggested * (1 - tc.TolerancePct/100)),
			Max: math.Round(suggested * (1 + tc.TolerancePct/100)),
		},
	}, nil
}

// WithinBand reports whether a price sits inside the tolerance band around
// the suggested tariff.
func (tc *TariffCalculator) WithinBand(price, suggested float64) bool {
	min := suggested * (1 - tc.TolerancePct/100)
	max := suggested * (1 + tc.TolerancePct/100)
	return price >= math.Round(min) && price <= math.Round(max)
}
