package decide

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"umbrella/internal/types"
)

func defaults() types.Thresholds { return types.DefaultThresholds() }

func TestDecide_WetCategoriesAlwaysNeeded(t *testing.T) {
	// Rainy and stormy force NEEDED regardless of probability.
	for _, cat := range []types.WeatherCategory{types.CategoryRainy, types.CategoryStormy} {
		for _, p := range []int{0, 5, 29, 30, 59, 60, 100} {
			assert.Equal(t, types.VerdictNeeded, Decide(cat, p, defaults()),
				"category=%s probability=%d", cat, p)
		}
	}
}

func TestDecide_ThresholdBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		category    types.WeatherCategory
		probability int
		want        types.UmbrellaVerdict
	}{
		{"cloudy at high threshold", types.CategoryCloudy, 60, types.VerdictNeeded},
		{"cloudy above high threshold", types.CategoryCloudy, 65, types.VerdictNeeded},
		{"cloudy just below high", types.CategoryCloudy, 59, types.VerdictMaybe},
		{"cloudy at low threshold", types.CategoryCloudy, 30, types.VerdictMaybe},
		{"cloudy just below low", types.CategoryCloudy, 29, types.VerdictNotNeeded},
		{"sunny zero", types.CategorySunny, 0, types.VerdictNotNeeded},
		{"snowy follows probability", types.CategorySnowy, 75, types.VerdictNeeded},
		{"snowy low probability", types.CategorySnowy, 10, types.VerdictNotNeeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.category, tt.probability, defaults()))
		})
	}
}

func TestDecide_CustomThresholds(t *testing.T) {
	th := types.Thresholds{LowPct: 50, HighPct: 90}

	assert.Equal(t, types.VerdictNotNeeded, Decide(types.CategoryCloudy, 49, th))
	assert.Equal(t, types.VerdictMaybe, Decide(types.CategoryCloudy, 50, th))
	assert.Equal(t, types.VerdictMaybe, Decide(types.CategoryCloudy, 89, th))
	assert.Equal(t, types.VerdictNeeded, Decide(types.CategoryCloudy, 90, th))
}

func TestDecideReading_RainScenario(t *testing.T) {
	// conditionCode=500 (rain), humidity=70, no forecast pop: the heuristic
	// yields 80 and the category forces NEEDED.
	r := types.WeatherReading{ConditionCode: 500, HumidityPct: 70}

	verdict, probability := DecideReading(r, defaults())
	assert.Equal(t, types.VerdictNeeded, verdict)
	assert.Equal(t, 80, probability)

	// 80 falls in the medium tier (>60, not >80), so the body must be the
	// "expected" variant, not the "very likely" one.
	_, body := DescribeVerdict(verdict, probability, 13)
	assert.Contains(t, body, "Rain is expected")
	assert.NotContains(t, body, "very likely")
}

func TestDecideBatch(t *testing.T) {
	dry := types.ForecastPoint{ConditionCode: 800, Pop: 0.05}
	damp := types.ForecastPoint{ConditionCode: 803, Pop: 0.4} // MAYBE via probability
	wet := types.ForecastPoint{ConditionCode: 500, Pop: 0.9}

	assert.False(t, DecideBatch(nil, defaults()))
	assert.False(t, DecideBatch([]types.ForecastPoint{dry, dry}, defaults()))
	assert.True(t, DecideBatch([]types.ForecastPoint{dry, damp}, defaults()))
	assert.True(t, DecideBatch([]types.ForecastPoint{dry, wet, dry}, defaults()))
}

func TestDecidePoint_UsesPop(t *testing.T) {
	// A clear-sky point with a high pop still triggers via probability.
	p := types.ForecastPoint{ConditionCode: 800, Pop: 0.65}

	verdict, probability := DecidePoint(p, defaults())
	assert.Equal(t, 65, probability)
	assert.Equal(t, types.VerdictNeeded, verdict)
}

func TestDescribeVerdict_Tiers(t *testing.T) {
	tests := []struct {
		name        string
		verdict     types.UmbrellaVerdict
		probability int
		wantTitle   string
		wantInBody  string
	}{
		{"high tier above 80", types.VerdictNeeded, 81, neededTitle, "very likely"},
		{"high tier at 100", types.VerdictNeeded, 100, neededTitle, "very likely"},
		{"medium tier at exactly 80", types.VerdictNeeded, 80, neededTitle, "Rain is expected"},
		{"medium tier at 60", types.VerdictNeeded, 60, neededTitle, "Rain is expected"},
		{"low tier for maybe", types.VerdictMaybe, 45, maybeTitle, "fair chance"},
		{"not needed clear", types.VerdictNotNeeded, 5, notNeededTitle, "Clear skies"},
		{"not needed boundary 10", types.VerdictNotNeeded, 10, notNeededTitle, "looks fine"},
		{"not needed fine", types.VerdictNotNeeded, 29, notNeededTitle, "looks fine"},
		{"not needed neutral at 30", types.VerdictNotNeeded, 30, notNeededTitle, "optional"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := DescribeVerdict(tt.verdict, tt.probability, 12)
			assert.Equal(t, tt.wantTitle, title)
			assert.Contains(t, body, tt.wantInBody)
		})
	}
}

func TestDescribeVerdict_TimeOfDayVariants(t *testing.T) {
	tests := []struct {
		hour       int
		wantInBody string
	}{
		{6, "way to work"},
		{8, "way to work"},
		{9, "before heading out"},
		{11, "before heading out"},
		{12, "this afternoon"},
		{17, "this afternoon"},
		{18, "trip home"},
		{20, "trip home"},
		{21, "within reach"},
		{3, "within reach"},
	}

	for _, tt := range tests {
		_, body := DescribeVerdict(types.VerdictNeeded, 90, tt.hour)
		assert.Contains(t, body, tt.wantInBody, "hour=%d", tt.hour)
	}
}
