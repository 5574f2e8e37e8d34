// Package classify maps raw weather readings to weather categories and
// rain-probability estimates. Everything in this package is a pure function
// over explicit inputs; no clocks, no I/O.
package classify

import "umbrella/internal/types"

// OpenWeatherMap-style condition code groups. The classifier is total: any
// code outside the known ranges falls back to cloudy.
const (
	thunderstormLow = 200
	thunderstormHigh = 299
	drizzleLow      = 300
	drizzleHigh     = 399
	rainLow         = 500
	rainHigh        = 599
	snowLow         = 600
	snowHigh        = 699
	clearSky        = 800
	cloudsLow       = 801
	cloudsHigh      = 899
)

// Classify maps a provider condition code to a weather category by inclusive
// numeric range.
func Classify(conditionCode int) types.WeatherCategory {
	switch {
	case conditionCode >= thunderstormLow && conditionCode <= thunderstormHigh:
		return types.CategoryStormy
	case conditionCode >= drizzleLow && conditionCode <= drizzleHigh:
		return types.CategoryRainy
	case conditionCode >= rainLow && conditionCode <= rainHigh:
		return types.CategoryRainy
	case conditionCode >= snowLow && conditionCode <= snowHigh:
		return types.CategorySnowy
	case conditionCode == clearSky:
		return types.CategorySunny
	case conditionCode >= cloudsLow && conditionCode <= cloudsHigh:
		return types.CategoryCloudy
	default:
		return types.CategoryCloudy
	}
}

// EstimateProbability approximates a rain probability for a current-weather
// reading, which unlike a forecast point carries no provider probability.
//
// The fixed values below are a calibration table inherited from production
// tuning; do not adjust them without re-validating against observed notify
// rates.
func EstimateProbability(r types.WeatherReading) int {
	switch {
	case r.HasPrecipitation:
		return 90
	case r.ConditionCode >= thunderstormLow && r.ConditionCode <= thunderstormHigh:
		return 85
	case r.ConditionCode >= drizzleLow && r.ConditionCode <= drizzleHigh:
		return 70
	case r.ConditionCode >= rainLow && r.ConditionCode <= rainHigh:
		return 80
	case r.HumidityPct > 80:
		return 40
	case r.HumidityPct > 60:
		return 20
	default:
		return 5
	}
}
