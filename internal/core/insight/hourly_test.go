package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skydash.app/internal/adapters/backend"
)

func TestHourKeyRoundTrip(t *testing.T) {
	at := time.Date(2024, 6, 1, 7, 45, 0, 0, time.Local)
	assert.Equal(t, "2024060107", HourKey(at))

	parsed, err := ParseHourlyTimestamp("2024060107")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 7, 0, 0, 0, time.Local), parsed)

	_, err = ParseHourlyTimestamp("2024-06-01")
	assert.Error(t, err)
}

func TestHourlyValue(t *testing.T) {
	now := time.Date(2024, 6, 1, 13, 10, 0, 0, time.Local)
	series := map[string]backend.FlexFloat{
		"2024060112": backend.Float(21),
		"2024060113": backend.Float(22.5),
		"2024060100": backend.Float(15),
	}

	v, ok := HourlyValue(series, now)
	assert.True(t, ok)
	assert.Equal(t, backend.Float(22.5), v)

	v, ok = HourlyValue(series, now.Add(24*time.Hour))
	assert.True(t, ok)
	assert.Equal(t, backend.Float(15), v, "falls back to the earliest hour")

	series["2024060113"] = backend.FlexFloat{}
	v, _ = HourlyValue(series, now)
	assert.Equal(t, backend.Float(15), v, "a missing reading at the current hour falls back too")

	_, ok = HourlyValue(nil, now)
	assert.False(t, ok)
}

func TestHourlySeriesAndTable(t *testing.T) {
	data := &backend.WeatherData{HourlyData: map[string]map[string]backend.FlexFloat{
		"T2M":  {"2024060101": backend.Float(17), "2024060100": backend.Float(18)},
		"RH2M": {"2024060100": backend.Float(70)},
	}}

	points := HourlySeries(data, "T2M")
	require.Len(t, points, 2)
	assert.Equal(t, "2024060100", points[0].Key)
	assert.Equal(t, "00:00", points[0].Time)
	assert.Equal(t, "01:00", points[1].Time)
	assert.Empty(t, HourlySeries(data, "PS"))
	assert.Nil(t, HourlySeries(nil, "T2M"))

	table := BuildHourlyTable(data)
	assert.Equal(t, []string{"RH2M", "T2M"}, table.Parameters)
	assert.Equal(t, []string{"2024060100"}, table.Hours, "hours come from the first parameter")
	assert.Equal(t, []backend.FlexFloat{backend.Float(70), backend.Float(18)}, table.Rows["2024060100"])

	assert.Empty(t, BuildHourlyTable(nil).Hours)
}

func TestSummarizeWeather(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	data := &backend.WeatherData{
		DataType: "prediction",
		HourlyData: map[string]map[string]backend.FlexFloat{
			"T2M":       {"2024060112": backend.Float(24.1)},
			"RH2M":      {"2024060112": backend.Float(55)},
			UVParameter: {"2024060112": backend.Float(7.2)},
		},
	}

	c := SummarizeWeather(data, now)
	assert.Equal(t, backend.Float(24.1), c.Temperature)
	assert.Equal(t, backend.Float(55), c.Humidity)
	assert.False(t, c.WindSpeed.Valid)
	require.NotNil(t, c.UV)
	assert.True(t, c.UV.Warning)
	assert.True(t, c.Forecast)

	delete(data.HourlyData, UVParameter)
	assert.Nil(t, SummarizeWeather(data, now).UV)
}

func TestThreeDayChart(t *testing.T) {
	forecast := &backend.ThreeDayForecast{Forecasts: []backend.DailyKpForecast{
		{Date: "2024-06-01", KpValues: []backend.FlexFloat{backend.Float(2), backend.Float(5.33)}},
		{Date: "2024-06-02", KpValues: []backend.FlexFloat{backend.Float(9)}},
	}}

	points := ThreeDayChart(forecast)
	require.Len(t, points, 3)
	assert.Equal(t, KpPoint{Date: "2024-06-01", Hour: 0, Kp: backend.Float(2), Label: "2024-06-01 00:00", Color: "#9e9e9e"}, points[0])
	assert.Equal(t, "2024-06-01 03:00", points[1].Label)
	assert.Equal(t, "#ffc107", points[1].Color)
	assert.Equal(t, "#dc004e", points[2].Color)
	assert.Nil(t, ThreeDayChart(nil))
}
