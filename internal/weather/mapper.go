package weather

import (
	"time"

	"umbrella/internal/types"
)

// dayFormat is the date bucket key for forecast points.
const dayFormat = "2006-01-02"

// mapCurrent converts a current-weather payload into a normalized reading.
// A missing conditions array defaults to clear sky, matching provider
// behavior for degenerate payloads.
func mapCurrent(dto currentWeatherDTO) types.WeatherReading {
	code, description := primaryCondition(dto.Weather)
	return types.WeatherReading{
		Latitude:         dto.Coord.Lat,
		Longitude:        dto.Coord.Lon,
		TemperatureC:     dto.Main.Temp,
		HumidityPct:      dto.Main.Humidity,
		WindSpeedMps:     dto.Wind.Speed,
		ConditionCode:    code,
		Description:      description,
		HasPrecipitation: hasVolume(dto.Rain) || hasVolume(dto.Snow),
		CapturedAtMs:     dto.Dt * 1000,
	}
}

// mapForecast converts a forecast payload into 3-hour points. The date
// bucket is the provider timestamp string truncated to its date part.
func mapForecast(dto forecastDTO) []types.ForecastPoint {
	points := make([]types.ForecastPoint, 0, len(dto.List))
	for _, item := range dto.List {
		code, _ := primaryCondition(item.Weather)
		date := item.DtTxt
		if len(date) >= len(dayFormat) {
			date = date[:len(dayFormat)]
		}
		points = append(points, types.ForecastPoint{
			Date:          date,
			TemperatureC:  item.Main.Temp,
			HumidityPct:   item.Main.Humidity,
			ConditionCode: code,
			Pop:           item.Pop,
			CapturedAtMs:  item.Dt * 1000,
		})
	}
	return points
}

func primaryCondition(conditions []conditionDTO) (code int, description string) {
	if len(conditions) == 0 {
		return 800, ""
	}
	return conditions[0].ID, conditions[0].Description
}

func hasVolume(p *precipDTO) bool {
	return p != nil && (p.OneHour > 0 || p.ThreeHours > 0)
}

// PointsForDay filters forecast points to a single day bucket.
func PointsForDay(points []types.ForecastPoint, day time.Time) []types.ForecastPoint {
	key := day.Format(dayFormat)
	var out []types.ForecastPoint
	for _, p := range points {
		if p.Date == key {
			out = append(out, p)
		}
	}
	return out
}

// TodayPoints filters forecast points to the current day.
func TodayPoints(points []types.ForecastPoint, clock types.Clock) []types.ForecastPoint {
	return PointsForDay(points, clock.Now())
}

// TomorrowPoints filters forecast points to the next day.
func TomorrowPoints(points []types.ForecastPoint, clock types.Clock) []types.ForecastPoint {
	return PointsForDay(points, clock.Now().AddDate(0, 0, 1))
}
