package decide

import "umbrella/internal/types"

// Copy tiers. The tier selection thresholds are the contract here; the
// wording itself is presentation.
//
//	NEEDED, probability > 80        -> high tier
//	NEEDED, probability <= 80       -> medium tier (80 itself lands here)
//	MAYBE                           -> low tier
//	NOT_NEEDED, probability < 10    -> clear tier
//	NOT_NEEDED, probability < 30    -> fine tier
//	NOT_NEEDED otherwise            -> neutral tier
const (
	neededTitle    = "Bring an umbrella!"
	maybeTitle     = "Maybe pack an umbrella"
	notNeededTitle = "No umbrella needed"
)

// DescribeVerdict renders a verdict and probability into notification copy.
// The hour (local, 0-23) refines the NEEDED body with a time-of-day variant;
// it never changes the tier.
func DescribeVerdict(verdict types.UmbrellaVerdict, probability int, hour int) (title, body string) {
	switch verdict {
	case types.VerdictNeeded:
		if probability > 80 {
			return neededTitle, "Rain is very likely today. " + neededTimeOfDayHint(hour)
		}
		return neededTitle, "Rain is expected today. " + neededTimeOfDayHint(hour)
	case types.VerdictMaybe:
		return maybeTitle, "There is a fair chance of rain. Better safe than soaked."
	default:
		switch {
		case probability < 10:
			return notNeededTitle, "Clear skies ahead. Leave the umbrella at home."
		case probability < 30:
			return notNeededTitle, "The weather looks fine. You should not need an umbrella."
		default:
			return notNeededTitle, "Nothing serious in the forecast. An umbrella is optional."
		}
	}
}

// neededTimeOfDayHint picks the commute-aware suffix for NEEDED copy.
func neededTimeOfDayHint(hour int) string {
	switch {
	case hour >= 6 && hour <= 8:
		return "Take one on your way to work."
	case hour >= 9 && hour <= 11:
		return "Grab one before heading out."
	case hour >= 12 && hour <= 17:
		return "Expect rain this afternoon."
	case hour >= 18 && hour <= 20:
		return "Keep one handy for the trip home."
	default:
		return "Keep one within reach."
	}
}
