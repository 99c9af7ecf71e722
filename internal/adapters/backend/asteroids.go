package backend

import (
	"context"
	"net/url"
)

type AsteroidsAPI struct {
	r Requester
}

// AsteroidFeed groups near earth objects by close approach date (YYYY-MM-DD)
type AsteroidFeed struct {
	ElementCount    int                   `json:"elementCount"`
	AsteroidsByDate map[string][]Asteroid `json:"asteroidsByDate"`
	Summary         *AsteroidFeedSummary  `json:"summary,omitempty"`
}

type AsteroidFeedSummary struct {
	TotalAsteroids       int              `json:"totalAsteroids"`
	PotentiallyHazardous int              `json:"potentiallyHazardous"`
	ClosestApproach      *ClosestApproach `json:"closestApproach,omitempty"`
	FastestAsteroid      *FastestAsteroid `json:"fastestAsteroid,omitempty"`
}

type ClosestApproach struct {
	Name     string       `json:"name"`
	Distance MissDistance `json:"distance"`
}

type FastestAsteroid struct {
	Name     string           `json:"name"`
	Velocity RelativeVelocity `json:"velocity"`
}

type Asteroid struct {
	ID                     string            `json:"id"`
	Name                   string            `json:"name"`
	IsPotentiallyHazardous bool              `json:"isPotentiallyHazardous"`
	IsSentryObject         bool              `json:"isSentryObject"`
	AbsoluteMagnitude      FlexFloat         `json:"absoluteMagnitude"`
	NasaJplURL             string            `json:"nasaJplUrl"`
	EstimatedDiameter      EstimatedDiameter `json:"estimatedDiameter"`
	CloseApproachData      CloseApproachData `json:"closeApproachData"`
}

type EstimatedDiameter struct {
	Kilometers DiameterRange `json:"kilometers"`
	Meters     DiameterRange `json:"meters"`
	Miles      DiameterRange `json:"miles"`
	Feet       DiameterRange `json:"feet"`
}

type DiameterRange struct {
	Min FlexFloat `json:"min"`
	Max FlexFloat `json:"max"`
}

type CloseApproachData struct {
	DateFull         string           `json:"dateFull"`
	MissDistance     MissDistance     `json:"missDistance"`
	RelativeVelocity RelativeVelocity `json:"relativeVelocity"`
	OrbitingBody     string           `json:"orbitingBody"`
}

type MissDistance struct {
	Kilometers   FlexFloat `json:"kilometers"`
	Astronomical FlexFloat `json:"astronomical"`
	Lunar        FlexFloat `json:"lunar"`
}

type RelativeVelocity struct {
	KilometersPerHour   FlexFloat `json:"kilometersPerHour"`
	KilometersPerSecond FlexFloat `json:"kilometersPerSecond"`
	MilesPerHour        FlexFloat `json:"milesPerHour"`
}

// GetFeed lists asteroids approaching between startDate and endDate (YYYY-MM-DD)
func (a *AsteroidsAPI) GetFeed(ctx context.Context, startDate, endDate string) (*AsteroidFeed, error) {
	query := url.Values{}
	query.Set("start_date", startDate)
	query.Set("end_date", endDate)

	var feed AsteroidFeed
	if err := get(ctx, a.r, "/asteroids/feed", "", query, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}
