package ports

import "context"

// Position is a device position reported by a Geolocator
type Position struct {
	Latitude  float64
	Longitude float64
	City      string
}

// Geolocator resolves the current position of the user
type Geolocator interface {
	Locate(ctx context.Context) (Position, error)
}
