package insight

import (
	"fmt"
	"sort"
	"time"

	"skydash.app/internal/adapters/backend"
)

// HourKeyLayout is the YYYYMMDDHH form used by hourly weather data
const HourKeyLayout = "2006010215"

// UVParameter is the hourly UV index series, when the backend sends it
const UVParameter = "ALLSKY_SFC_UV_INDEX"

// HourKey formats t in its own location as YYYYMMDDHH
func HourKey(t time.Time) string {
	return t.Format(HourKeyLayout)
}

// ParseHourlyTimestamp reads a YYYYMMDDHH key as local time
func ParseHourlyTimestamp(key string) (time.Time, error) {
	t, err := time.ParseInLocation(HourKeyLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hourly timestamp %q: %w", key, err)
	}
	return t, nil
}

// HourlyValue returns the value at the hour of now, else the value of the
// earliest hour in the series. ok is false for an empty series.
func HourlyValue(series map[string]backend.FlexFloat, now time.Time) (backend.FlexFloat, bool) {
	if len(series) == 0 {
		return backend.FlexFloat{}, false
	}
	if v, exists := series[HourKey(now)]; exists && v.Valid {
		return v, true
	}
	keys := sortedKeys(series)
	return series[keys[0]], true
}

// HourlyPoint is one sample of an hourly series
type HourlyPoint struct {
	Key   string            `json:"key"`
	Time  string            `json:"time"`
	Value backend.FlexFloat `json:"value"`
}

// HourlySeries returns the samples of param ordered by hour. Keys that are
// not YYYYMMDDHH keep their raw text as the time label.
func HourlySeries(data *backend.WeatherData, param string) []HourlyPoint {
	if data == nil {
		return nil
	}
	series := data.HourlyData[param]
	points := make([]HourlyPoint, 0, len(series))
	for _, key := range sortedKeys(series) {
		label := key
		if t, err := ParseHourlyTimestamp(key); err == nil {
			label = t.Format("15:04")
		}
		points = append(points, HourlyPoint{Key: key, Time: label, Value: series[key]})
	}
	return points
}

// HourlyTable lists every hour present in the first parameter (by name)
// with the values of all parameters at that hour
type HourlyTable struct {
	Parameters []string                       `json:"parameters"`
	Hours      []string                       `json:"hours"`
	Rows       map[string][]backend.FlexFloat `json:"rows"`
}

func BuildHourlyTable(data *backend.WeatherData) HourlyTable {
	table := HourlyTable{Rows: map[string][]backend.FlexFloat{}}
	if data == nil || len(data.HourlyData) == 0 {
		return table
	}

	for param := range data.HourlyData {
		table.Parameters = append(table.Parameters, param)
	}
	sort.Strings(table.Parameters)
	table.Hours = sortedKeys(data.HourlyData[table.Parameters[0]])

	for _, hour := range table.Hours {
		row := make([]backend.FlexFloat, len(table.Parameters))
		for i, param := range table.Parameters {
			row[i] = data.HourlyData[param][hour]
		}
		table.Rows[hour] = row
	}
	return table
}

// CurrentConditions is the weather summary shown for the current hour
type CurrentConditions struct {
	Temperature backend.FlexFloat `json:"temperature"`
	Humidity    backend.FlexFloat `json:"humidity"`
	WindSpeed   backend.FlexFloat `json:"windSpeed"`
	Pressure    backend.FlexFloat `json:"pressure"`
	UV          *UVInfo           `json:"uv,omitempty"`
	Forecast    bool              `json:"forecast"`
}

func SummarizeWeather(data *backend.WeatherData, now time.Time) CurrentConditions {
	var c CurrentConditions
	if data == nil {
		return c
	}
	value := func(param string) backend.FlexFloat {
		v, _ := HourlyValue(data.HourlyData[param], now)
		return v
	}
	c.Temperature = value("T2M")
	c.Humidity = value("RH2M")
	c.WindSpeed = value("WS10M")
	c.Pressure = value("PS")
	if uv, ok := UVLevel(value(UVParameter)); ok {
		c.UV = &uv
	}
	c.Forecast = data.IsPrediction()
	return c
}

// KpPoint is one 3-hour slot of the 3-day forecast chart
type KpPoint struct {
	Date  string            `json:"date"`
	Hour  int               `json:"hour"`
	Kp    backend.FlexFloat `json:"kp"`
	Label string            `json:"label"`
	Color string            `json:"color"`
}

// ThreeDayChart flattens the forecast into one point per 3-hour slot
func ThreeDayChart(forecast *backend.ThreeDayForecast) []KpPoint {
	if forecast == nil {
		return nil
	}
	var points []KpPoint
	for _, day := range forecast.Forecasts {
		for i, kp := range day.KpValues {
			hour := i * 3
			points = append(points, KpPoint{
				Date:  day.Date,
				Hour:  hour,
				Kp:    kp,
				Label: fmt.Sprintf("%s %02d:00", day.Date, hour),
				Color: KpColor(kp.Or(0)),
			})
		}
	}
	return points
}

func sortedKeys(m map[string]backend.FlexFloat) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
