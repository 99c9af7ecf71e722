// Package dashboard binds one fetch hook to every backend resource the
// dashboard shows, each with its guard and fallback error text.
package dashboard

import (
	"context"

	"skydash.app/internal/adapters/backend"
	"skydash.app/internal/core/fetch"
	"skydash.app/internal/ports"
)

// Fallback error texts, used when a failure carries no message of its own
const (
	WeatherFailedMessage        = "Failed to fetch weather data"
	ParametersFailedMessage     = "Failed to fetch weather parameters"
	AsteroidsFailedMessage      = "Failed to fetch asteroid data"
	StormsFailedMessage         = "Failed to fetch geomagnetic storms"
	ThreeDayFailedMessage       = "Failed to fetch 3-day forecast"
	TwentySevenDayFailedMessage = "Failed to fetch 27-day forecast"
	CombinedFailedMessage       = "Failed to fetch combined forecast"
	CategoriesFailedMessage     = "Failed to fetch EONET categories"
	EventsFailedMessage         = "Failed to fetch EONET events"
	GeoJSONFailedMessage        = "Failed to fetch EONET GeoJSON"
	CategoryEventsFailedMessage = "Failed to fetch category events"
	RegionalEventsFailedMessage = "Failed to fetch regional events"
	AirQualityFailedMessage     = "Failed to fetch air quality data"
	APODFailedMessage           = "Failed to fetch astronomy picture of the day"
	RandomAPODFailedMessage     = "Failed to fetch random astronomy pictures"
)

// NoParams is the parameter type of resources that take none
type NoParams struct{}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AirQualityParams struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

type CategoryParams struct {
	CategoryID string              `json:"categoryId"`
	Filter     backend.EventFilter `json:"filter"`
}

type APODParams struct {
	Date   string `json:"date,omitempty"`
	Thumbs bool   `json:"thumbs,omitempty"`
}

type RandomAPODParams struct {
	Count  int  `json:"count,omitempty"`
	Thumbs bool `json:"thumbs,omitempty"`
}

// Observer is told about every state change of every hook
type Observer func(hook string, state fetch.State)

type Params struct {
	Backend  *backend.Backend
	Logger   ports.Logger
	Observer Observer
}

type Hooks struct {
	Weather                *fetch.Hook[backend.WeatherDataParams, *backend.WeatherData]
	WeatherParameters      *fetch.Hook[NoParams, []backend.WeatherParameter]
	Asteroids              *fetch.Hook[DateRange, *backend.AsteroidFeed]
	Storms                 *fetch.Hook[DateRange, *backend.StormReport]
	ThreeDayForecast       *fetch.Hook[NoParams, *backend.ThreeDayForecast]
	TwentySevenDayForecast *fetch.Hook[NoParams, *backend.TwentySevenDayForecast]
	CombinedForecast       *fetch.Hook[NoParams, *backend.CombinedForecast]
	EventCategories        *fetch.Hook[NoParams, []backend.EventCategory]
	Events                 *fetch.Hook[backend.EventFilter, *backend.EventList]
	EventsGeoJSON          *fetch.Hook[backend.EventFilter, *backend.GeoJSONFeatureCollection]
	EventsByCategory       *fetch.Hook[CategoryParams, *backend.EventList]
	RegionalEvents         *fetch.Hook[backend.EventFilter, *backend.EventList]
	AirQuality             *fetch.Hook[AirQualityParams, *backend.AirQuality]
	APODToday              *fetch.Hook[APODParams, *backend.APOD]
	APODByDate             *fetch.Hook[APODParams, *backend.APOD]
	APODRandom             *fetch.Hook[RandomAPODParams, []backend.APOD]
}

func New(params Params) *Hooks {
	b := params.Backend

	return &Hooks{
		Weather: newHook(params, "weather", WeatherFailedMessage, WeatherReady,
			func(ctx context.Context, p backend.WeatherDataParams) (*backend.WeatherData, error) {
				return b.Weather.GetWeatherData(ctx, p)
			}),
		WeatherParameters: newHook(params, "weather_parameters", ParametersFailedMessage, nil,
			func(ctx context.Context, _ NoParams) ([]backend.WeatherParameter, error) {
				return b.Weather.GetParameters(ctx)
			}),
		Asteroids: newHook(params, "asteroids", AsteroidsFailedMessage, DateRangeReady,
			func(ctx context.Context, p DateRange) (*backend.AsteroidFeed, error) {
				return b.Asteroids.GetFeed(ctx, p.Start, p.End)
			}),
		Storms: newHook(params, "geomagnetic_storms", StormsFailedMessage, DateRangeReady,
			func(ctx context.Context, p DateRange) (*backend.StormReport, error) {
				return b.Geomagnetic.GetStorms(ctx, p.Start, p.End)
			}),
		ThreeDayForecast: newHook(params, "forecast_3day", ThreeDayFailedMessage, nil,
			func(ctx context.Context, _ NoParams) (*backend.ThreeDayForecast, error) {
				return b.Geomagnetic.Get3DayForecast(ctx)
			}),
		TwentySevenDayForecast: newHook(params, "forecast_27day", TwentySevenDayFailedMessage, nil,
			func(ctx context.Context, _ NoParams) (*backend.TwentySevenDayForecast, error) {
				return b.Geomagnetic.Get27DayForecast(ctx)
			}),
		CombinedForecast: newHook(params, "forecast_combined", CombinedFailedMessage, nil,
			func(ctx context.Context, _ NoParams) (*backend.CombinedForecast, error) {
				return b.Geomagnetic.GetCombinedForecast(ctx)
			}),
		EventCategories: newHook(params, "eonet_categories", CategoriesFailedMessage, nil,
			func(ctx context.Context, _ NoParams) ([]backend.EventCategory, error) {
				return b.EONET.GetCategories(ctx)
			}),
		Events: newHook(params, "eonet_events", EventsFailedMessage, nil,
			func(ctx context.Context, f backend.EventFilter) (*backend.EventList, error) {
				return b.EONET.GetEvents(ctx, f)
			}),
		EventsGeoJSON: newHook(params, "eonet_geojson", GeoJSONFailedMessage, nil,
			func(ctx context.Context, f backend.EventFilter) (*backend.GeoJSONFeatureCollection, error) {
				return b.EONET.GetEventsGeoJSON(ctx, f)
			}),
		EventsByCategory: newHook(params, "eonet_category_events", CategoryEventsFailedMessage, CategoryReady,
			func(ctx context.Context, p CategoryParams) (*backend.EventList, error) {
				return b.EONET.GetEventsByCategory(ctx, p.CategoryID, p.Filter)
			}),
		RegionalEvents: newHook(params, "eonet_regional_events", RegionalEventsFailedMessage, RegionalReady,
			func(ctx context.Context, f backend.EventFilter) (*backend.EventList, error) {
				return b.EONET.GetRegionalEvents(ctx, f)
			}),
		AirQuality: newHook(params, "air_quality", AirQualityFailedMessage, AirQualityReady,
			func(ctx context.Context, p AirQualityParams) (*backend.AirQuality, error) {
				return b.OpenAQ.GetAirQuality(ctx, p.Latitude, p.Longitude, p.Radius, p.Limit)
			}),
		APODToday: newHook(params, "apod_today", APODFailedMessage, nil,
			func(ctx context.Context, p APODParams) (*backend.APOD, error) {
				return b.APOD.GetToday(ctx, p.Thumbs)
			}),
		APODByDate: newHook(params, "apod_date", APODFailedMessage, APODDateReady,
			func(ctx context.Context, p APODParams) (*backend.APOD, error) {
				return b.APOD.GetByDate(ctx, p.Date, p.Thumbs)
			}),
		APODRandom: newHook(params, "apod_random", RandomAPODFailedMessage, nil,
			func(ctx context.Context, p RandomAPODParams) ([]backend.APOD, error) {
				return b.APOD.GetRandom(ctx, p.Count, p.Thumbs)
			}),
	}
}

// Cancel aborts every backend call the hooks have in flight
func (h *Hooks) Cancel() {
	h.Weather.Cancel()
	h.WeatherParameters.Cancel()
	h.Asteroids.Cancel()
	h.Storms.Cancel()
	h.ThreeDayForecast.Cancel()
	h.TwentySevenDayForecast.Cancel()
	h.CombinedForecast.Cancel()
	h.EventCategories.Cancel()
	h.Events.Cancel()
	h.EventsGeoJSON.Cancel()
	h.EventsByCategory.Cancel()
	h.RegionalEvents.Cancel()
	h.AirQuality.Cancel()
	h.APODToday.Cancel()
	h.APODByDate.Cancel()
	h.APODRandom.Cancel()
}

// WeatherReady requires a date and non-zero coordinates. A location exactly
// on the equator or the prime meridian is treated as unset.
func WeatherReady(p backend.WeatherDataParams) bool {
	return p.Latitude != 0 && p.Longitude != 0 && p.Date != ""
}

func DateRangeReady(p DateRange) bool {
	return p.Start != "" && p.End != ""
}

func CategoryReady(p CategoryParams) bool {
	return p.CategoryID != ""
}

// RegionalReady requires a bounding box or both user coordinates
func RegionalReady(f backend.EventFilter) bool {
	return f.BBox != "" || (f.UserLat != 0 && f.UserLon != 0)
}

func AirQualityReady(p AirQualityParams) bool {
	return p.Latitude != 0 && p.Longitude != 0
}

func APODDateReady(p APODParams) bool {
	return p.Date != ""
}

func newHook[P, T any](params Params, name, fallback string, ready func(P) bool, fn fetch.Func[P, T]) *fetch.Hook[P, T] {
	opts := fetch.Options[P, T]{
		Name:     name,
		Fetch:    fn,
		Ready:    ready,
		Fallback: fallback,
		Logger:   params.Logger,
	}
	if params.Observer != nil {
		observer := params.Observer
		opts.Observer = func(s fetch.Snapshot[P, T]) {
			observer(name, s.State)
		}
	}
	return fetch.New(opts)
}
