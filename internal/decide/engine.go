// Package decide implements the umbrella decision engine: combining a
// weather category, a rain probability, and the user thresholds into an
// umbrella-necessity verdict, and rendering verdicts into notification copy.
package decide

import (
	"umbrella/internal/classify"
	"umbrella/internal/types"
)

// Decide produces the umbrella verdict for a single classified reading.
//
// Rainy and stormy categories force NEEDED regardless of probability; the
// probability thresholds only matter for dry-category readings.
func Decide(category types.WeatherCategory, probability int, th types.Thresholds) types.UmbrellaVerdict {
	if category == types.CategoryRainy || category == types.CategoryStormy {
		return types.VerdictNeeded
	}
	switch {
	case probability >= th.HighPct:
		return types.VerdictNeeded
	case probability >= th.LowPct:
		return types.VerdictMaybe
	default:
		return types.VerdictNotNeeded
	}
}

// DecideReading classifies a current-weather reading and decides on it.
// The probability is estimated heuristically since current readings carry
// no provider probability field.
func DecideReading(r types.WeatherReading, th types.Thresholds) (types.UmbrellaVerdict, int) {
	category := classify.Classify(r.ConditionCode)
	probability := classify.EstimateProbability(r)
	return Decide(category, probability, th), probability
}

// DecidePoint decides on a single forecast point using its explicit
// probability of precipitation.
func DecidePoint(p types.ForecastPoint, th types.Thresholds) (types.UmbrellaVerdict, int) {
	category := classify.Classify(p.ConditionCode)
	probability := p.Probability()
	return Decide(category, probability, th), probability
}

// DecideBatch pre-screens a set of forecast points and reports whether any
// of them needs an umbrella (verdict other than NOT_NEEDED).
func DecideBatch(points []types.ForecastPoint, th types.Thresholds) bool {
	for _, p := range points {
		if v, _ := DecidePoint(p, th); v != types.VerdictNotNeeded {
			return true
		}
	}
	return false
}
