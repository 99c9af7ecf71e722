package insight

import (
	"math"

	"skydash.app/internal/adapters/backend"
)

// Level is a labelled severity band
type Level struct {
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

var kpLevels = [10]Level{
	{"Quiet", "#10b981", "No geomagnetic activity"},
	{"Quiet", "#10b981", "No geomagnetic activity"},
	{"Quiet", "#10b981", "No geomagnetic activity"},
	{"Unsettled", "#f59e0b", "Minor geomagnetic activity"},
	{"Active", "#f59e0b", "Active geomagnetic field"},
	{"Minor Storm", "#f97316", "Minor geomagnetic storm (G1)"},
	{"Moderate Storm", "#ef4444", "Moderate geomagnetic storm (G2)"},
	{"Strong Storm", "#dc2626", "Strong geomagnetic storm (G3)"},
	{"Severe Storm", "#b91c1c", "Severe geomagnetic storm (G4)"},
	{"Extreme Storm", "#7f1d1d", "Extreme geomagnetic storm (G5)"},
}

// KpLevel maps a Kp index to its band. Fractional values round down and
// the result is clamped to 0..9.
func KpLevel(kp float64) Level {
	if math.IsNaN(kp) || kp < 0 {
		return kpLevels[0]
	}
	i := int(math.Floor(kp))
	if i > 9 {
		i = 9
	}
	return kpLevels[i]
}

// KpColor is the chart color used for a Kp value
func KpColor(kp float64) string {
	switch {
	case kp >= 9:
		return "#dc004e"
	case kp >= 8:
		return "#f50057"
	case kp >= 7:
		return "#ff6f00"
	case kp >= 6:
		return "#ff9800"
	case kp >= 5:
		return "#ffc107"
	case kp >= 4:
		return "#4caf50"
	case kp >= 3:
		return "#8bc34a"
	default:
		return "#9e9e9e"
	}
}

// IsStorm reports whether kp reaches G1
func IsStorm(kp float64) bool {
	return kp >= 5
}

// UVInfo describes how a UV index should be presented
type UVInfo struct {
	Level   string `json:"level"`
	Warning bool   `json:"warning"`
	Message string `json:"message"`
}

// UVLevel grades a UV index: below 3 low, below 6 moderate, otherwise high
// with a warning. An invalid value yields false.
func UVLevel(uv backend.FlexFloat) (UVInfo, bool) {
	if !uv.Valid {
		return UVInfo{}, false
	}
	switch {
	case uv.Value >= 6:
		return UVInfo{Level: "high", Warning: true, Message: "High UV - Use sunscreen!"}, true
	case uv.Value >= 3:
		return UVInfo{Level: "moderate", Message: "UV " + FormatValue(uv, 2)}, true
	default:
		return UVInfo{Level: "low", Message: "UV " + FormatValue(uv, 2)}, true
	}
}

var aqiLevels = []struct {
	max float64
	Level
}{
	{12, Level{"Good", "#10b981", "Air quality is satisfactory"}},
	{35, Level{"Moderate", "#f59e0b", "Acceptable for most people"}},
	{55, Level{"Unhealthy for Sensitive Groups", "#f97316", "May affect sensitive individuals"}},
	{math.Inf(1), Level{"Unhealthy", "#ef4444", "Everyone may experience health effects"}},
}

// AQILevel grades a PM2.5 concentration in µg/m³
func AQILevel(pm25 float64) Level {
	for _, l := range aqiLevels {
		if pm25 <= l.max {
			return l.Level
		}
	}
	return aqiLevels[len(aqiLevels)-1].Level
}

// ParameterInfo names a weather parameter code
type ParameterInfo struct {
	Name  string `json:"name"`
	Unit  string `json:"unit"`
	Color string `json:"color"`
}

var weatherParameters = map[string]ParameterInfo{
	"T2M":               {"Temperature", "°C", "#ef4444"},
	"RH2M":              {"Humidity", "%", "#3b82f6"},
	"WS10M":             {"Wind Speed", "m/s", "#06b6d4"},
	"WD10M":             {"Wind Direction", "°", "#8b5cf6"},
	"PS":                {"Pressure", "kPa", "#f59e0b"},
	"ALLSKY_SFC_SW_DWN": {"Solar Irradiance", "kW-hr/m²/day", "#eab308"},
}

// WeatherParameterInfo returns the display name and unit of a parameter
// code; unknown codes are named by the code itself
func WeatherParameterInfo(code string) ParameterInfo {
	if info, ok := weatherParameters[code]; ok {
		return info
	}
	return ParameterInfo{Name: code, Color: "#3b82f6"}
}

// CategoryInfo names an EONET event category
type CategoryInfo struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var eventCategories = map[string]CategoryInfo{
	"wildfires":    {"Wildfires", "🔥", "#ef4444"},
	"volcanoes":    {"Volcanoes", "🌋", "#f97316"},
	"earthquakes":  {"Earthquakes", "🏔️", "#a78bfa"},
	"floods":       {"Floods", "🌊", "#3b82f6"},
	"storms":       {"Storms", "⛈️", "#6366f1"},
	"drought":      {"Drought", "🏜️", "#fbbf24"},
	"severeStorms": {"Severe Storms", "🌪️", "#8b5cf6"},
	"snow":         {"Snow", "❄️", "#60a5fa"},
	"dustHaze":     {"Dust & Haze", "🌫️", "#9ca3af"},
	"seaLakeIce":   {"Sea/Lake Ice", "🧊", "#06b6d4"},
	"tempExtremes": {"Temperature Extremes", "🌡️", "#fb923c"},
	"waterColor":   {"Water Color", "💧", "#22d3ee"},
}

// EventCategoryInfo returns display data for a category id
func EventCategoryInfo(id string) (CategoryInfo, bool) {
	info, ok := eventCategories[id]
	return info, ok
}

// EventAlert is one line of the natural events alert list
type EventAlert struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Date     string `json:"date,omitempty"`
}

// EventAlerts summarises events for the alert list: the first category
// title, or "Natural Event", and the first geometry date
func EventAlerts(list *backend.EventList) []EventAlert {
	if list == nil {
		return nil
	}
	alerts := make([]EventAlert, 0, len(list.Events))
	for _, ev := range list.Events {
		alert := EventAlert{ID: ev.ID, Title: ev.Title, Category: "Natural Event"}
		if cat, ok := ev.PrimaryCategory(); ok && cat.Title != "" {
			alert.Category = cat.Title
		}
		if geo, ok := ev.LatestGeometry(); ok {
			alert.Date = geo.Date
		}
		alerts = append(alerts, alert)
	}
	return alerts
}
