package weather

// Provider response shapes (OpenWeatherMap data/2.5). Only the fields the
// pipeline consumes are declared; everything else in the payload is ignored.

type currentWeatherDTO struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []conditionDTO `json:"weather"`
	Main    mainDTO        `json:"main"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain *precipDTO `json:"rain"`
	Snow *precipDTO `json:"snow"`
	Dt   int64      `json:"dt"`
	Name string     `json:"name"`
}

type conditionDTO struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

type mainDTO struct {
	Temp     float64 `json:"temp"`
	TempMin  float64 `json:"temp_min"`
	TempMax  float64 `json:"temp_max"`
	Humidity int     `json:"humidity"`
}

// precipDTO carries accumulated precipitation volume. The provider reports
// either a 1-hour or a 3-hour bucket depending on the endpoint.
type precipDTO struct {
	OneHour    float64 `json:"1h"`
	ThreeHours float64 `json:"3h"`
}

type forecastDTO struct {
	Cod  string            `json:"cod"`
	List []forecastItemDTO `json:"list"`
}

type forecastItemDTO struct {
	Dt      int64          `json:"dt"`
	Main    mainDTO        `json:"main"`
	Weather []conditionDTO `json:"weather"`
	Rain    *precipDTO     `json:"rain"`
	Snow    *precipDTO     `json:"snow"`
	Pop     float64        `json:"pop"`
	DtTxt   string         `json:"dt_txt"` // "2006-01-02 15:04:05"
}
