package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"umbrella/internal/types"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestPointsForDay(t *testing.T) {
	points := []types.ForecastPoint{
		{Date: "2026-09-01", Pop: 0.1},
		{Date: "2026-09-01", Pop: 0.9},
		{Date: "2026-09-02", Pop: 0.5},
	}

	day := time.Date(2026, 9, 1, 15, 4, 5, 0, time.UTC)
	got := PointsForDay(points, day)
	assert.Len(t, got, 2)

	assert.Empty(t, PointsForDay(points, day.AddDate(0, 0, 5)))
}

func TestTodayAndTomorrowPoints(t *testing.T) {
	clock := fixedClock{now: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)}
	points := []types.ForecastPoint{
		{Date: "2026-08-31"},
		{Date: "2026-09-01"},
		{Date: "2026-09-02"},
		{Date: "2026-09-02"},
	}

	assert.Len(t, TodayPoints(points, clock), 1)
	assert.Len(t, TomorrowPoints(points, clock), 2)
}

func TestMapCurrent_SnowCountsAsPrecipitation(t *testing.T) {
	dto := currentWeatherDTO{}
	dto.Main.Humidity = 90
	dto.Weather = []conditionDTO{{ID: 600, Description: "light snow"}}
	dto.Snow = &precipDTO{ThreeHours: 1.2}

	reading := mapCurrent(dto)
	assert.True(t, reading.HasPrecipitation)
	assert.Equal(t, 600, reading.ConditionCode)
}

func TestMapForecast_TruncatesTimestampToDate(t *testing.T) {
	dto := forecastDTO{List: []forecastItemDTO{
		{DtTxt: "2026-12-25 21:00:00", Pop: 0.25, Weather: []conditionDTO{{ID: 802}}},
		{DtTxt: "bad"}, // shorter than a date; passed through untouched
	}}

	points := mapForecast(dto)
	assert.Equal(t, "2026-12-25", points[0].Date)
	assert.Equal(t, 25, points[0].Probability())
	assert.Equal(t, "bad", points[1].Date)
	assert.Equal(t, 800, points[1].ConditionCode) // empty conditions default
}
