package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"skydash.app/internal/adapters/backend"
	"skydash.app/internal/core/dashboard"
	"skydash.app/internal/core/insight"
	"skydash.app/internal/core/location"
	"skydash.app/pkg/errors"
	"skydash.app/pkg/validation"
)

const closestAsteroidCount = 3

type WeatherResponse struct {
	Location location.Location          `json:"location"`
	Date     string                     `json:"date"`
	Weather  SnapshotResponse           `json:"weather"`
	Current  *insight.CurrentConditions `json:"current,omitempty"`
}

type AsteroidsResponse struct {
	Start   string                   `json:"start"`
	End     string                   `json:"end"`
	Feed    SnapshotResponse         `json:"feed"`
	Closest []backend.Asteroid       `json:"closest,omitempty"`
	Hazards *insight.HazardBreakdown `json:"hazards,omitempty"`
	Daily   []insight.DailyCount     `json:"daily,omitempty"`
}

type StormsResponse struct {
	Start  string           `json:"start"`
	End    string           `json:"end"`
	Storms SnapshotResponse `json:"storms"`
}

type ForecastResponse struct {
	Forecast SnapshotResponse  `json:"forecast"`
	Chart    []insight.KpPoint `json:"chart,omitempty"`
	Current  *KpSummary        `json:"current,omitempty"`
}

// KpSummary grades the highest Kp of the first forecast day
type KpSummary struct {
	Kp    float64       `json:"kp"`
	Level insight.Level `json:"level"`
	Storm bool          `json:"storm"`
}

type EventsResponse struct {
	Events SnapshotResponse     `json:"events"`
	Alerts []insight.EventAlert `json:"alerts,omitempty"`
}

type AirQualityResponse struct {
	Location   location.Location `json:"location"`
	AirQuality SnapshotResponse  `json:"airQuality"`
	PM25       *AirQualityLevel  `json:"pm25,omitempty"`
}

type AirQualityLevel struct {
	Station string        `json:"station"`
	Value   float64       `json:"value"`
	Unit    string        `json:"unit"`
	Level   insight.Level `json:"level"`
}

// getWeather handles GET /api/weather?date= for the current location
func (s *HTTPServerAdapter) getWeather(c *gin.Context) {
	now := s.now()
	date := c.DefaultQuery("date", insight.APIDate(now))
	if _, ok := validation.ParseDate(date); !ok {
		s.handleError(c, errors.NewValidationError("date must be YYYY-MM-DD"))
		return
	}

	loc := s.locations.Current()
	snap := load(c, s.hooks.Weather, backend.WeatherDataParams{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Date:      date,
	})

	resp := WeatherResponse{Location: loc, Date: date, Weather: snapshotResponse(snap)}
	if snap.HasData && snap.Data != nil {
		current := insight.SummarizeWeather(snap.Data, now)
		resp.Current = &current
	}
	c.JSON(http.StatusOK, resp)
}

// getAsteroids handles GET /api/asteroids?start=&end=
func (s *HTTPServerAdapter) getAsteroids(c *gin.Context) {
	now := s.now()
	rng, ok := s.dateRange(c, insight.APIDate(now), insight.APIDate(insight.DaysFromNow(now, 1)))
	if !ok {
		return
	}

	snap := load(c, s.hooks.Asteroids, rng)
	resp := AsteroidsResponse{Start: rng.Start, End: rng.End, Feed: snapshotResponse(snap)}
	if snap.HasData && snap.Data != nil {
		resp.Closest = insight.ClosestAsteroids(snap.Data, closestAsteroidCount)
		hazards := insight.CountHazards(insight.AllAsteroids(snap.Data))
		resp.Hazards = &hazards
		resp.Daily = insight.DailyAsteroidCounts(snap.Data)
	}
	c.JSON(http.StatusOK, resp)
}

// getStorms handles GET /api/geomagnetic/storms?start=&end=
func (s *HTTPServerAdapter) getStorms(c *gin.Context) {
	now := s.now()
	rng, ok := s.dateRange(c, insight.APIDate(insight.DaysAgo(now, 30)), insight.APIDate(now))
	if !ok {
		return
	}

	snap := load(c, s.hooks.Storms, rng)
	c.JSON(http.StatusOK, StormsResponse{Start: rng.Start, End: rng.End, Storms: snapshotResponse(snap)})
}

// getForecast handles GET /api/geomagnetic/forecast
func (s *HTTPServerAdapter) getForecast(c *gin.Context) {
	snap := load(c, s.hooks.ThreeDayForecast, dashboard.NoParams{})

	resp := ForecastResponse{Forecast: snapshotResponse(snap)}
	if snap.HasData && snap.Data != nil {
		resp.Chart = insight.ThreeDayChart(snap.Data)
		if len(snap.Data.Forecasts) > 0 {
			var max float64
			for _, kp := range snap.Data.Forecasts[0].KpValues {
				if kp.Valid && kp.Value > max {
					max = kp.Value
				}
			}
			resp.Current = &KpSummary{Kp: max, Level: insight.KpLevel(max), Storm: insight.IsStorm(max)}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// getEvents handles GET /api/events. A category narrows the query to one
// EONET category; otherwise open events of the last week are listed.
func (s *HTTPServerAdapter) getEvents(c *gin.Context) {
	filter := backend.EventFilter{
		Status: c.DefaultQuery("status", "open"),
		Source: c.Query("source"),
		Start:  c.Query("start"),
		End:    c.Query("end"),
	}
	var err error
	if filter.Limit, err = intQuery(c, "limit", 5); err != nil {
		s.handleError(c, err)
		return
	}
	if filter.Days, err = intQuery(c, "days", 7); err != nil {
		s.handleError(c, err)
		return
	}

	var snap SnapshotResponse
	var list *backend.EventList
	if category := c.Query("category"); category != "" {
		result := load(c, s.hooks.EventsByCategory, dashboard.CategoryParams{CategoryID: category, Filter: filter})
		snap, list = snapshotResponse(result), result.Data
	} else {
		result := load(c, s.hooks.Events, filter)
		snap, list = snapshotResponse(result), result.Data
	}

	resp := EventsResponse{Events: snap}
	if snap.Data != nil {
		resp.Alerts = insight.EventAlerts(list)
	}
	c.JSON(http.StatusOK, resp)
}

// getAirQuality handles GET /api/airquality for the current location
func (s *HTTPServerAdapter) getAirQuality(c *gin.Context) {
	loc := s.locations.Current()
	snap := load(c, s.hooks.AirQuality, dashboard.AirQualityParams{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	})

	resp := AirQualityResponse{Location: loc, AirQuality: snapshotResponse(snap)}
	if snap.HasData && snap.Data != nil {
		for _, station := range snap.Data.Locations {
			if m, ok := station.Measurement("pm25"); ok {
				resp.PM25 = &AirQualityLevel{
					Station: station.Name,
					Value:   m.Value.Value,
					Unit:    m.Unit,
					Level:   insight.AQILevel(m.Value.Value),
				}
				break
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// getAPOD handles GET /api/apod?date=
func (s *HTTPServerAdapter) getAPOD(c *gin.Context) {
	params := dashboard.APODParams{Date: c.Query("date"), Thumbs: c.Query("thumbs") == "true"}
	if params.Date == "" {
		c.JSON(http.StatusOK, snapshotResponse(load(c, s.hooks.APODToday, params)))
		return
	}

	if _, ok := validation.ParseDate(params.Date); !ok {
		s.handleError(c, errors.NewValidationError("date must be YYYY-MM-DD"))
		return
	}
	c.JSON(http.StatusOK, snapshotResponse(load(c, s.hooks.APODByDate, params)))
}

// dateRange reads ?start=&end=, filling in defaults, and writes a 400 when
// the range is invalid
func (s *HTTPServerAdapter) dateRange(c *gin.Context, defaultStart, defaultEnd string) (dashboard.DateRange, bool) {
	rng := dashboard.DateRange{
		Start: c.DefaultQuery("start", defaultStart),
		End:   c.DefaultQuery("end", defaultEnd),
	}
	if !validation.ValidDateRange(rng.Start, rng.End) {
		s.handleError(c, errors.NewValidationError("start and end must be YYYY-MM-DD dates with start not after end"))
		return rng, false
	}
	return rng, true
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.NewValidationError(key + " must be a non-negative integer")
	}
	return n, nil
}
