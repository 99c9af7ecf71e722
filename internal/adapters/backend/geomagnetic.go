package backend

import (
	"context"
	"encoding/json"
	"net/url"
)

type GeomagneticAPI struct {
	r Requester
}

type StormReport struct {
	Storms     []Storm         `json:"storms"`
	Statistics StormStatistics `json:"statistics"`
	TotalCount int             `json:"totalCount"`
}

type Storm struct {
	GstID        string          `json:"gstID"`
	StartTime    string          `json:"startTime"`
	AllKpIndex   []KpObservation `json:"allKpIndex"`
	LinkedEvents []LinkedEvent   `json:"linkedEvents"`
	Link         string          `json:"link"`
}

// MaxKp returns the highest observed Kp of the storm, or 0 without observations
func (s Storm) MaxKp() float64 {
	var max float64
	for _, obs := range s.AllKpIndex {
		if v := obs.KpIndex.Or(0); v > max {
			max = v
		}
	}
	return max
}

type KpObservation struct {
	ObservedTime string    `json:"observedTime"`
	KpIndex      FlexFloat `json:"kpIndex"`
	Source       string    `json:"source"`
}

type LinkedEvent struct {
	ActivityID string `json:"activityID"`
}

type StormStatistics struct {
	MaxKpIndex          FlexFloat `json:"maxKpIndex"`
	AverageKpIndex      FlexFloat `json:"averageKpIndex"`
	TotalKpObservations int       `json:"totalKpObservations"`
}

type ThreeDayForecast struct {
	Forecasts []DailyKpForecast `json:"forecasts"`
	Summary   ForecastSummary   `json:"summary"`
}

// DailyKpForecast carries eight 3-hour Kp slots for one day
type DailyKpForecast struct {
	Date          string      `json:"date"`
	KpValues      []FlexFloat `json:"kpValues"`
	KpIndex       FlexFloat   `json:"kpIndex"`
	MaxKpIndex    FlexFloat   `json:"maxKpIndex"`
	MinKpIndex    FlexFloat   `json:"minKpIndex"`
	ActivityLevel string      `json:"activityLevel"`
	StormLevel    string      `json:"stormLevel"`
}

type ForecastSummary struct {
	MaxKp         FlexFloat       `json:"maxKp"`
	AverageKp     FlexFloat       `json:"averageKp"`
	StormDays     int             `json:"stormDays"`
	ActiveDays    int             `json:"activeDays"`
	NotableEvents json.RawMessage `json:"notableEvents,omitempty"`
}

type TwentySevenDayForecast struct {
	Outlooks []DailyOutlook  `json:"outlooks"`
	Summary  ForecastSummary `json:"summary"`
}

type DailyOutlook struct {
	Date          string    `json:"date"`
	KpIndex       FlexFloat `json:"kpIndex"`
	RadioFlux     FlexFloat `json:"radioFlux"`
	AIndex        FlexFloat `json:"aIndex"`
	ActivityLevel string    `json:"activityLevel"`
	StormLevel    string    `json:"stormLevel"`
}

// CombinedForecast pairs the short and long range forecasts
type CombinedForecast struct {
	ThreeDay       *ThreeDayForecast       `json:"threeDay,omitempty"`
	TwentySevenDay *TwentySevenDayForecast `json:"twentySevenDay,omitempty"`
}

func (a *GeomagneticAPI) GetStorms(ctx context.Context, startDate, endDate string) (*StormReport, error) {
	query := url.Values{}
	query.Set("startDate", startDate)
	query.Set("endDate", endDate)

	var report StormReport
	if err := get(ctx, a.r, "/geomagnetic/storms", "", query, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (a *GeomagneticAPI) Get3DayForecast(ctx context.Context) (*ThreeDayForecast, error) {
	var forecast ThreeDayForecast
	if err := get(ctx, a.r, "/geomagnetic/forecast/3-day", "", nil, &forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}

func (a *GeomagneticAPI) Get27DayForecast(ctx context.Context) (*TwentySevenDayForecast, error) {
	var forecast TwentySevenDayForecast
	if err := get(ctx, a.r, "/geomagnetic/forecast/27-day", "", nil, &forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}

func (a *GeomagneticAPI) GetCombinedForecast(ctx context.Context) (*CombinedForecast, error) {
	var forecast CombinedForecast
	if err := get(ctx, a.r, "/geomagnetic/forecast/combined", "", nil, &forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}
