// Package geolocation resolves the user's position for the location store.
package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"skydash.app/internal/config"
	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
	"skydash.app/pkg/validation"
)

const (
	ModeIP       = "ip"
	ModeFixed    = "fixed"
	ModeDisabled = "disabled"
)

// IPGeolocator asks an ip-api.com compatible service where the caller is
type IPGeolocator struct {
	url    string
	client *http.Client
}

type IPGeolocatorParams struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
}

func NewIPGeolocator(params IPGeolocatorParams) *IPGeolocator {
	client := params.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: params.Timeout}
	}
	return &IPGeolocator{url: params.URL, client: client}
}

func (g *IPGeolocator) Locate(ctx context.Context) (ports.Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return ports.Position{}, errors.NewGeolocationError(errors.GeolocationMessage, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return ports.Position{}, errors.NewGeolocationError(errors.GeolocationMessage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.Position{}, errors.NewGeolocationError(errors.GeolocationMessage,
			fmt.Errorf("lookup returned status %d", resp.StatusCode))
	}

	var body ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ports.Position{}, errors.NewGeolocationError(errors.GeolocationMessage, err)
	}

	// ip-api reports failures with a 200 and status "fail"
	if body.Status != "" && body.Status != "success" {
		return ports.Position{}, errors.NewGeolocationError(errors.GeolocationMessage,
			fmt.Errorf("lookup failed: %s", body.Message))
	}
	if !validation.ValidCoordinates(body.Lat, body.Lon) {
		return ports.Position{}, errors.NewGeolocationError(errors.GeolocationMessage,
			fmt.Errorf("lookup returned invalid coordinates %v,%v", body.Lat, body.Lon))
	}

	return ports.Position{Latitude: body.Lat, Longitude: body.Lon, City: body.City}, nil
}

// FixedGeolocator always reports the configured position
type FixedGeolocator struct {
	position ports.Position
}

func NewFixedGeolocator(position ports.Position) *FixedGeolocator {
	return &FixedGeolocator{position: position}
}

func (g *FixedGeolocator) Locate(ctx context.Context) (ports.Position, error) {
	if err := ctx.Err(); err != nil {
		return ports.Position{}, errors.NewGeolocationError(errors.GeolocationMessage, err)
	}
	return g.position, nil
}

// DisabledGeolocator reports the capability as unavailable
type DisabledGeolocator struct{}

func (DisabledGeolocator) Locate(ctx context.Context) (ports.Position, error) {
	return ports.Position{}, errors.NewGeolocationError("Geolocation is not supported", nil)
}

// New builds the locator selected by cfg.Mode
func New(cfg *config.GeolocationConfig) (ports.Geolocator, error) {
	if cfg == nil {
		return nil, errors.NewConfigurationError("geolocation config cannot be nil", nil)
	}

	switch cfg.Mode {
	case ModeIP:
		return NewIPGeolocator(IPGeolocatorParams{
			URL:     cfg.URL,
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		}), nil
	case ModeFixed:
		return NewFixedGeolocator(ports.Position{Latitude: cfg.Latitude, Longitude: cfg.Longitude}), nil
	case ModeDisabled:
		return DisabledGeolocator{}, nil
	default:
		return nil, errors.NewConfigurationError(fmt.Sprintf("unsupported geolocation mode: %s", cfg.Mode), nil)
	}
}
