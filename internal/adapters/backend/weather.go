package backend

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
)

const (
	// WeatherParameters is the fixed set requested for every weather query
	WeatherParameters = "T2M,RH2M,WS10M,WD10M,PS,ALLSKY_SFC_SW_DWN"

	DefaultHistoricalYears = 20
)

type WeatherAPI struct {
	r Requester
}

// WeatherDataParams identifies one weather query. Date is YYYY-MM-DD.
type WeatherDataParams struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Date            string  `json:"date"`
	HistoricalYears int     `json:"historicalYears"`
}

// WeatherData is keyed by parameter code, then by YYYYMMDDHH hour key
type WeatherData struct {
	HourlyData          map[string]map[string]FlexFloat `json:"hourlyData"`
	DailyAggregates     map[string]DailyAggregate       `json:"dailyAggregates"`
	DataType            string                          `json:"dataType,omitempty"`
	PredictionMethod    string                          `json:"predictionMethod,omitempty"`
	HistoricalYearsUsed int                             `json:"historicalYearsUsed,omitempty"`
	HistoricalDateRange string                          `json:"historicalDateRange,omitempty"`
	PredictionMetadata  *PredictionMetadata             `json:"predictionMetadata,omitempty"`
}

type DailyAggregate struct {
	Min   FlexFloat `json:"min"`
	Max   FlexFloat `json:"max"`
	Mean  FlexFloat `json:"mean"`
	Units string    `json:"units"`
}

type PredictionMetadata struct {
	Reliability string `json:"reliability"`
}

// IsPrediction reports whether the backend produced a forecast rather than
// historical observations
func (w *WeatherData) IsPrediction() bool {
	return w.DataType == "prediction"
}

type WeatherParameter struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Units       string `json:"units"`
	Description string `json:"description,omitempty"`
}

type HistoricalRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Years     int    `json:"years,omitempty"`
}

// GetWeatherData requests hourly data and daily aggregates for one date.
// A zero HistoricalYears uses the default of 20.
func (a *WeatherAPI) GetWeatherData(ctx context.Context, params WeatherDataParams) (*WeatherData, error) {
	years := params.HistoricalYears
	if years == 0 {
		years = DefaultHistoricalYears
	}

	query := url.Values{}
	query.Set("latitude", formatFloat(params.Latitude))
	query.Set("longitude", formatFloat(params.Longitude))
	query.Set("date", params.Date)
	query.Set("parameters", WeatherParameters)
	query.Set("historicalYears", strconv.Itoa(years))
	query.Set("format", "json")

	var data WeatherData
	if err := get(ctx, a.r, "/weather/data", "", query, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetParameters lists the parameters the backend can serve. The backend
// answers either with a list or with an object keyed by parameter code.
func (a *WeatherAPI) GetParameters(ctx context.Context) ([]WeatherParameter, error) {
	var payload parameterList
	if err := get(ctx, a.r, "/weather/parameters", "", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (a *WeatherAPI) GetHistoricalRange(ctx context.Context, latitude, longitude float64) (*HistoricalRange, error) {
	query := url.Values{}
	query.Set("latitude", formatFloat(latitude))
	query.Set("longitude", formatFloat(longitude))

	var rng HistoricalRange
	if err := get(ctx, a.r, "/weather/historical-range", "", query, &rng); err != nil {
		return nil, err
	}
	return &rng, nil
}

type parameterList []WeatherParameter

func (p *parameterList) UnmarshalJSON(data []byte) error {
	var list []WeatherParameter
	if err := json.Unmarshal(data, &list); err == nil {
		*p = list
		return nil
	}

	var wrapped struct {
		Parameters json.RawMessage `json:"parameters"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Parameters) > 0 {
		return p.UnmarshalJSON(wrapped.Parameters)
	}

	var byCode map[string]WeatherParameter
	if err := json.Unmarshal(data, &byCode); err != nil {
		return err
	}
	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]WeatherParameter, 0, len(codes))
	for _, code := range codes {
		param := byCode[code]
		if param.Code == "" {
			param.Code = code
		}
		out = append(out, param)
	}
	*p = out
	return nil
}
