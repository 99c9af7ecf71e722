// Package location holds the current and saved map locations and keeps
// them in persistent storage.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
	"skydash.app/pkg/validation"
)

// CurrentLocationName names positions obtained from the geolocator
const CurrentLocationName = "Current Location"

type Location struct {
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	Name      string  `json:"name"`
}

// SameCoordinates reports whether both locations point at the same place
func (l Location) SameCoordinates(other Location) bool {
	return l.Latitude == other.Latitude && l.Longitude == other.Longitude
}

// Validate rejects out of range coordinates
func (l Location) Validate() error {
	if !validation.ValidCoordinates(l.Latitude, l.Longitude) {
		return errors.NewValidationError(fmt.Sprintf("invalid coordinates: %v, %v", l.Latitude, l.Longitude))
	}
	if err := validation.Struct(l); err != nil {
		return errors.NewValidationError(fmt.Sprintf("invalid location: %v", err))
	}
	return nil
}

type StoreParams struct {
	Storage    ports.Storage
	Geolocator ports.Geolocator
	Logger     ports.Logger
	Default    Location
}

// Store owns the current location and the saved locations list. Every
// change is written to storage before it becomes visible.
type Store struct {
	storage    ports.Storage
	geolocator ports.Geolocator
	logger     ports.Logger

	mu      sync.RWMutex
	current Location
	saved   []Location
}

// NewStore hydrates from storage. Missing or unreadable entries fall back
// to the default location; only a failing storage backend is an error.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Storage == nil {
		return nil, errors.NewConfigurationError("location store requires storage", nil)
	}
	if err := params.Default.Validate(); err != nil {
		return nil, errors.NewConfigurationError("invalid default location", err)
	}

	s := &Store{
		storage:    params.Storage,
		geolocator: params.Geolocator,
		logger:     params.Logger,
		current:    params.Default,
		saved:      []Location{params.Default},
	}

	var current Location
	found, err := s.load(ctx, ports.KeyCurrentLocation, &current)
	if err != nil {
		return nil, err
	}
	if found && current.Validate() == nil {
		s.current = current
	}

	var saved []Location
	found, err = s.load(ctx, ports.KeySavedLocations, &saved)
	if err != nil {
		return nil, err
	}
	if found && saved != nil {
		s.saved = dedupe(saved)
	}

	return s, nil
}

func (s *Store) Current() Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Saved() []Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Location(nil), s.saved...)
}

// Update makes loc the current location
func (s *Store) Update(ctx context.Context, loc Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx, ports.KeyCurrentLocation, loc); err != nil {
		return err
	}
	s.current = loc
	return nil
}

// AddSaved appends loc unless a saved location has the same coordinates
func (s *Store) AddSaved(ctx context.Context, loc Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.saved {
		if existing.SameCoordinates(loc) {
			return nil
		}
	}

	next := append(append([]Location(nil), s.saved...), loc)
	if err := s.save(ctx, ports.KeySavedLocations, next); err != nil {
		return err
	}
	s.saved = next
	return nil
}

// RemoveSaved drops every saved location with loc's coordinates
func (s *Store) RemoveSaved(ctx context.Context, loc Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Location, 0, len(s.saved))
	for _, existing := range s.saved {
		if !existing.SameCoordinates(loc) {
			next = append(next, existing)
		}
	}
	if len(next) == len(s.saved) {
		return nil
	}

	if err := s.save(ctx, ports.KeySavedLocations, next); err != nil {
		return err
	}
	s.saved = next
	return nil
}

// CurrentPosition asks the geolocator for the device position and makes it
// the current location
func (s *Store) CurrentPosition(ctx context.Context) (Location, error) {
	if s.geolocator == nil {
		return Location{}, errors.NewGeolocationError("Geolocation is not supported", nil)
	}

	pos, err := s.geolocator.Locate(ctx)
	if err != nil {
		if errors.IsGeolocationError(err) {
			return Location{}, err
		}
		return Location{}, errors.NewGeolocationError(errors.GeolocationMessage, err)
	}

	loc := Location{Latitude: pos.Latitude, Longitude: pos.Longitude, Name: CurrentLocationName}
	if err := loc.Validate(); err != nil {
		return Location{}, errors.NewGeolocationError(errors.GeolocationMessage, err)
	}
	if err := s.Update(ctx, loc); err != nil {
		return Location{}, err
	}
	return loc, nil
}

func (s *Store) load(ctx context.Context, key string, target interface{}) (bool, error) {
	raw, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		if s.logger != nil {
			s.logger.Warn("Ignoring unreadable stored value",
				ports.F("key", key),
				ports.F("error", err.Error()))
		}
		return false, nil
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.NewStorageError("failed to encode "+key, err)
	}
	return s.storage.Set(ctx, key, string(raw))
}

func dedupe(list []Location) []Location {
	out := make([]Location, 0, len(list))
	for _, loc := range list {
		if loc.Validate() != nil {
			continue
		}
		duplicate := false
		for _, kept := range out {
			if kept.SameCoordinates(loc) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, loc)
		}
	}
	return out
}
