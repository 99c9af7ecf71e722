package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultAirQualityRadius = 25000
	DefaultAirQualityLimit  = 10
)

type OpenAQAPI struct {
	r Requester
}

type AirQuality struct {
	Locations []AirQualityLocation `json:"locations"`
	Count     int                  `json:"count,omitempty"`
}

type AirQualityLocation struct {
	ID           FlexFloat               `json:"id"`
	Name         string                  `json:"name"`
	Locality     string                  `json:"locality,omitempty"`
	Country      string                  `json:"country,omitempty"`
	Coordinates  *Coordinates            `json:"coordinates,omitempty"`
	Distance     FlexFloat               `json:"distance"`
	Measurements []AirQualityMeasurement `json:"measurements"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type AirQualityMeasurement struct {
	Parameter   string    `json:"parameter"`
	Value       FlexFloat `json:"value"`
	Unit        string    `json:"unit"`
	LastUpdated string    `json:"lastUpdated,omitempty"`
}

// Measurement finds the latest reading of parameter (case-insensitive, "pm2.5" matches "pm25")
func (l AirQualityLocation) Measurement(parameter string) (AirQualityMeasurement, bool) {
	want := normalizeParameter(parameter)
	for _, m := range l.Measurements {
		if normalizeParameter(m.Parameter) == want && m.Value.Valid {
			return m, true
		}
	}
	return AirQualityMeasurement{}, false
}

func normalizeParameter(p string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(p)), ".", "")
}

// GetAirQuality finds monitoring stations within radius meters. Zero radius
// and limit use 25000 and 10.
func (a *OpenAQAPI) GetAirQuality(ctx context.Context, latitude, longitude, radius float64, limit int) (*AirQuality, error) {
	if radius == 0 {
		radius = DefaultAirQualityRadius
	}
	if limit == 0 {
		limit = DefaultAirQualityLimit
	}

	query := url.Values{}
	query.Set("coordinates", fmt.Sprintf("%s,%s", formatFloat(latitude), formatFloat(longitude)))
	query.Set("radius", formatFloat(radius))
	query.Set("limit", strconv.Itoa(limit))

	var aq AirQuality
	if err := get(ctx, a.r, "/openaq/airquality", "", query, &aq); err != nil {
		return nil, err
	}
	return &aq, nil
}
