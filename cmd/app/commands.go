package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"skydash.app/internal/adapters/backend"
	"skydash.app/internal/app"
	"skydash.app/internal/core/auth"
	"skydash.app/internal/core/dashboard"
	"skydash.app/internal/core/fetch"
	"skydash.app/internal/core/insight"
	"skydash.app/internal/core/location"
	"skydash.app/internal/core/theme"
	"skydash.app/pkg/errors"
	"skydash.app/pkg/validation"
)

const usage = `Usage: skydash <command> [flags]

Commands:
  serve                               run the dashboard gateway (default)
  weather [-date D] [-param CODE]     weather at the current location
  parameters                          available weather parameters
  history                             historical data range at the current location
  asteroids [-start D] [-end D] [-search S] [-sort name|size|velocity]
  storms [-start D] [-end D]          geomagnetic storms
  forecast [-kind 3-day|27-day|combined]
  categories                          natural event categories
  events [-status S] [-limit N] [-days N] [-category ID] [-geojson] [-radius KM]
  airquality [-radius M] [-limit N]   air quality near the current location
  apod [-date D] [-random N] [-thumbs]
  login -email E -password P
  register -first F -last L -email E -password P
  logout
  profile [-first F -last L -email E] show or update the profile
  location [get|list|set|add|remove|locate] [-lat N -lon N -name S]
  theme [get|toggle|set MODE]
`

func printUsage(w io.Writer) {
	fmt.Fprint(w, usage)
}

func userMessage(err error) string {
	return errors.UserMessage(err, err.Error())
}

// commandRunner executes one CLI command against the wired stores and hooks
type commandRunner struct {
	backend   *backend.Backend
	hooks     *dashboard.Hooks
	locations *location.Store
	theme     *theme.Store
	auth      *auth.Store
	session   auth.BootstrapResult
	out       io.Writer
	now       func() time.Time
}

func newCommandRunner(deps *app.DependencyContainer, out io.Writer) *commandRunner {
	return &commandRunner{
		backend:   deps.Backend,
		hooks:     deps.Hooks,
		locations: deps.Locations,
		theme:     deps.Theme,
		auth:      deps.Auth,
		out:       out,
		now:       time.Now,
	}
}

func (r *commandRunner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printUsage(r.out)
		return nil
	}

	name, rest := args[0], args[1:]
	switch name {
	case "weather":
		return r.weather(ctx, rest)
	case "history":
		loc := r.locations.Current()
		rng, err := r.backend.Weather.GetHistoricalRange(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			return err
		}
		return r.print(rng)
	case "parameters":
		return printSnapshot(r, r.hooks.WeatherParameters.Set(ctx, dashboard.NoParams{}))
	case "asteroids":
		return r.asteroids(ctx, rest)
	case "storms":
		return r.storms(ctx, rest)
	case "forecast":
		return r.forecast(ctx, rest)
	case "categories":
		return printSnapshot(r, r.hooks.EventCategories.Set(ctx, dashboard.NoParams{}))
	case "events":
		return r.events(ctx, rest)
	case "airquality":
		return r.airQuality(ctx, rest)
	case "apod":
		return r.apod(ctx, rest)
	case "login":
		return r.login(ctx, rest)
	case "register":
		return r.register(ctx, rest)
	case "logout":
		if err := r.auth.Logout(ctx); err != nil {
			return err
		}
		return r.print(map[string]bool{"authenticated": false})
	case "profile":
		return r.profile(ctx, rest)
	case "location":
		return r.location(ctx, rest)
	case "theme":
		return r.themeCommand(ctx, rest)
	default:
		printUsage(r.out)
		return errors.NewValidationError(fmt.Sprintf("unknown command %q", name))
	}
}

func (r *commandRunner) weather(ctx context.Context, args []string) error {
	fs := newFlagSet("weather")
	date := fs.String("date", insight.APIDate(r.now()), "date as YYYY-MM-DD")
	param := fs.String("param", "", "print the hourly series of one parameter code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, ok := validation.ParseDate(*date); !ok {
		return errors.NewValidationError("date must be YYYY-MM-DD")
	}

	loc := r.locations.Current()
	snap := r.hooks.Weather.Set(ctx, backend.WeatherDataParams{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Date:      *date,
	})
	if err := snapshotError(snap); err != nil {
		return err
	}

	if *param != "" {
		return r.print(map[string]interface{}{
			"parameter": insight.WeatherParameterInfo(*param),
			"series":    insight.HourlySeries(snap.Data, *param),
		})
	}
	return r.print(map[string]interface{}{
		"location": loc,
		"date":     *date,
		"current":  insight.SummarizeWeather(snap.Data, r.now()),
		"hourly":   insight.BuildHourlyTable(snap.Data),
	})
}

func (r *commandRunner) asteroids(ctx context.Context, args []string) error {
	now := r.now()
	fs := newFlagSet("asteroids")
	start := fs.String("start", insight.APIDate(now), "start date")
	end := fs.String("end", insight.APIDate(insight.DaysFromNow(now, 1)), "end date")
	search := fs.String("search", "", "filter by name")
	sortBy := fs.String("sort", insight.SortNone, "name, size or velocity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rng, err := parseRange(*start, *end)
	if err != nil {
		return err
	}

	snap := r.hooks.Asteroids.Set(ctx, rng)
	if err := snapshotError(snap); err != nil {
		return err
	}

	closest := insight.ClosestAsteroids(snap.Data, 3)
	type closeApproach struct {
		Name      string `json:"name"`
		Distance  string `json:"distance"`
		Velocity  string `json:"velocity"`
		Hazardous bool   `json:"hazardous"`
	}
	approaches := make([]closeApproach, 0, len(closest))
	for _, a := range closest {
		approaches = append(approaches, closeApproach{
			Name:      a.Name,
			Distance:  insight.FormatDistance(a.CloseApproachData.MissDistance.Kilometers.Or(0)),
			Velocity:  insight.FormatVelocity(a.CloseApproachData.RelativeVelocity.KilometersPerHour.Or(0)),
			Hazardous: a.IsPotentiallyHazardous,
		})
	}

	return r.print(map[string]interface{}{
		"range":   rng,
		"closest": approaches,
		"hazards": insight.CountHazards(insight.AllAsteroids(snap.Data)),
		"daily":   insight.DailyAsteroidCounts(snap.Data),
		"groups":  insight.FilterSortAsteroids(snap.Data, *search, *sortBy),
	})
}

func (r *commandRunner) storms(ctx context.Context, args []string) error {
	now := r.now()
	fs := newFlagSet("storms")
	start := fs.String("start", insight.APIDate(insight.DaysAgo(now, 30)), "start date")
	end := fs.String("end", insight.APIDate(now), "end date")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rng, err := parseRange(*start, *end)
	if err != nil {
		return err
	}
	return printSnapshot(r, r.hooks.Storms.Set(ctx, rng))
}

func (r *commandRunner) forecast(ctx context.Context, args []string) error {
	fs := newFlagSet("forecast")
	kind := fs.String("kind", "3-day", "3-day, 27-day or combined")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch *kind {
	case "3-day":
		snap := r.hooks.ThreeDayForecast.Set(ctx, dashboard.NoParams{})
		if err := snapshotError(snap); err != nil {
			return err
		}
		return r.print(map[string]interface{}{
			"forecast": snap.Data,
			"chart":    insight.ThreeDayChart(snap.Data),
		})
	case "27-day":
		return printSnapshot(r, r.hooks.TwentySevenDayForecast.Set(ctx, dashboard.NoParams{}))
	case "combined":
		return printSnapshot(r, r.hooks.CombinedForecast.Set(ctx, dashboard.NoParams{}))
	default:
		return errors.NewValidationError("kind must be 3-day, 27-day or combined")
	}
}

func (r *commandRunner) events(ctx context.Context, args []string) error {
	fs := newFlagSet("events")
	status := fs.String("status", "open", "open or closed")
	limit := fs.Int("limit", 5, "maximum number of events")
	days := fs.Int("days", 7, "look back this many days")
	category := fs.String("category", "", "category id")
	geoJSON := fs.Bool("geojson", false, "print events as GeoJSON")
	radius := fs.Float64("radius", 0, "only events within this many km of the current location")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := backend.EventFilter{Status: *status, Limit: *limit, Days: *days}
	switch {
	case *category != "":
		snap := r.hooks.EventsByCategory.Set(ctx, dashboard.CategoryParams{CategoryID: *category, Filter: filter})
		return printEvents(r, snap)
	case *geoJSON:
		return printSnapshot(r, r.hooks.EventsGeoJSON.Set(ctx, filter))
	case *radius > 0:
		loc := r.locations.Current()
		filter.UserLat = loc.Latitude
		filter.UserLon = loc.Longitude
		filter.Radius = *radius
		return printEvents(r, r.hooks.RegionalEvents.Set(ctx, filter))
	default:
		return printEvents(r, r.hooks.Events.Set(ctx, filter))
	}
}

func printEvents[P any](r *commandRunner, snap fetch.Snapshot[P, *backend.EventList]) error {
	if err := snapshotError(snap); err != nil {
		return err
	}
	return r.print(insight.EventAlerts(snap.Data))
}

func (r *commandRunner) airQuality(ctx context.Context, args []string) error {
	fs := newFlagSet("airquality")
	radius := fs.Float64("radius", 25000, "search radius in meters")
	limit := fs.Int("limit", 10, "maximum number of stations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	loc := r.locations.Current()
	snap := r.hooks.AirQuality.Set(ctx, dashboard.AirQualityParams{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Radius:    *radius,
		Limit:     *limit,
	})
	return printSnapshot(r, snap)
}

func (r *commandRunner) apod(ctx context.Context, args []string) error {
	fs := newFlagSet("apod")
	date := fs.String("date", "", "picture of this date")
	random := fs.Int("random", 0, "number of random pictures")
	thumbs := fs.Bool("thumbs", false, "include video thumbnails")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *random > 0:
		return printSnapshot(r, r.hooks.APODRandom.Set(ctx, dashboard.RandomAPODParams{Count: *random, Thumbs: *thumbs}))
	case *date != "":
		if _, ok := validation.ParseDate(*date); !ok {
			return errors.NewValidationError("date must be YYYY-MM-DD")
		}
		return printSnapshot(r, r.hooks.APODByDate.Set(ctx, dashboard.APODParams{Date: *date, Thumbs: *thumbs}))
	default:
		return printSnapshot(r, r.hooks.APODToday.Set(ctx, dashboard.APODParams{Thumbs: *thumbs}))
	}
}

func (r *commandRunner) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := r.auth.Login(ctx, *email, *password); err != nil {
		return err
	}
	return r.printSession()
}

func (r *commandRunner) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	var req backend.RegisterRequest
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Password, "password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := r.auth.Register(ctx, req)
	if err != nil {
		return err
	}
	if user == nil {
		return r.print(map[string]string{"message": "Registration successful. Please log in."})
	}
	return r.printSession()
}

func (r *commandRunner) profile(ctx context.Context, args []string) error {
	fs := newFlagSet("profile")
	var update backend.ProfileUpdate
	fs.StringVar(&update.FirstName, "first", "", "first name")
	fs.StringVar(&update.LastName, "last", "", "last name")
	fs.StringVar(&update.Email, "email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NFlag() > 0 {
		if _, err := r.auth.UpdateProfile(ctx, update); err != nil {
			return err
		}
		return r.printSession()
	}

	if r.session.Outcome == auth.BootstrapLoggedOut {
		return errors.NewAuthError(r.session.Err)
	}
	return r.printSession()
}

func (r *commandRunner) printSession() error {
	session := r.auth.Session()
	return r.print(map[string]interface{}{
		"authenticated": session.Authenticated,
		"user":          session.User,
		"expiresAt":     session.ExpiresAt,
	})
}

func (r *commandRunner) location(ctx context.Context, args []string) error {
	action := "get"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action, args = args[0], args[1:]
	}

	fs := newFlagSet("location " + action)
	lat := fs.Float64("lat", 0, "latitude")
	lon := fs.Float64("lon", 0, "longitude")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	loc := location.Location{Latitude: *lat, Longitude: *lon, Name: *name}

	switch action {
	case "get":
		return r.print(r.locations.Current())
	case "list":
		return r.print(r.locations.Saved())
	case "set":
		if err := r.locations.Update(ctx, loc); err != nil {
			return err
		}
		return r.print(r.locations.Current())
	case "add":
		if err := r.locations.AddSaved(ctx, loc); err != nil {
			return err
		}
		return r.print(r.locations.Saved())
	case "remove":
		if err := r.locations.RemoveSaved(ctx, loc); err != nil {
			return err
		}
		return r.print(r.locations.Saved())
	case "locate":
		current, err := r.locations.CurrentPosition(ctx)
		if err != nil {
			return err
		}
		return r.print(current)
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown location action %q", action))
	}
}

func (r *commandRunner) themeCommand(ctx context.Context, args []string) error {
	action := "get"
	if len(args) > 0 {
		action = args[0]
	}

	switch action {
	case "get":
	case "toggle":
		if _, err := r.theme.Toggle(ctx); err != nil {
			return err
		}
	case "set":
		if len(args) < 2 {
			return errors.NewValidationError("theme set needs light or dark")
		}
		if err := r.theme.Set(ctx, theme.Mode(args[1])); err != nil {
			return err
		}
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown theme action %q", action))
	}
	return r.print(map[string]interface{}{
		"mode":    r.theme.Mode(),
		"palette": r.theme.Palette(),
	})
}

func (r *commandRunner) print(v interface{}) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSnapshot[P, T any](r *commandRunner, snap fetch.Snapshot[P, T]) error {
	if err := snapshotError(snap); err != nil {
		return err
	}
	return r.print(snap.Data)
}

// snapshotError turns a failed or never started hook run into an error
func snapshotError[P, T any](snap fetch.Snapshot[P, T]) error {
	switch snap.State {
	case fetch.StateFailed:
		return errors.New(errors.ErrorTypeUnknown, snap.Err)
	case fetch.StateSuccess:
		return nil
	default:
		return errors.NewValidationError("request parameters are incomplete")
	}
}

func parseRange(start, end string) (dashboard.DateRange, error) {
	if !validation.ValidDateRange(start, end) {
		return dashboard.DateRange{}, errors.NewValidationError("start and end must be YYYY-MM-DD with start not after end")
	}
	return dashboard.DateRange{Start: start, End: end}, nil
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}
