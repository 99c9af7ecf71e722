// Package theme keeps the light/dark preference and the colour palettes
// rendered for each mode.
package theme

import (
	"context"
	"fmt"
	"sync"

	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// ParseMode accepts "light" or "dark"
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeLight, ModeDark:
		return Mode(s), true
	default:
		return "", false
	}
}

// Opposite returns the other mode
func (m Mode) Opposite() Mode {
	if m == ModeDark {
		return ModeLight
	}
	return ModeDark
}

type ColorSet struct {
	Main  string `json:"main"`
	Light string `json:"light,omitempty"`
	Dark  string `json:"dark,omitempty"`
}

type Palette struct {
	Mode          Mode     `json:"mode"`
	Primary       ColorSet `json:"primary"`
	Secondary     ColorSet `json:"secondary"`
	Background    string   `json:"background"`
	Paper         string   `json:"paper"`
	TextPrimary   string   `json:"textPrimary"`
	TextSecondary string   `json:"textSecondary"`
	Divider       string   `json:"divider"`
}

var palettes = map[Mode]Palette{
	ModeLight: {
		Mode:          ModeLight,
		Primary:       ColorSet{Main: "#00E0FF", Light: "#33E8FF", Dark: "#00B8D4"},
		Secondary:     ColorSet{Main: "#3B82F6"},
		Background:    "#F0F4FF",
		Paper:         "rgba(255, 255, 255, 0.8)",
		TextPrimary:   "#1F2937",
		TextSecondary: "#4B5563",
		Divider:       "rgba(0, 0, 0, 0.12)",
	},
	ModeDark: {
		Mode:          ModeDark,
		Primary:       ColorSet{Main: "#90caf9"},
		Secondary:     ColorSet{Main: "#ce93d8"},
		Background:    "#000000",
		Paper:         "#121212",
		TextPrimary:   "#ffffff",
		TextSecondary: "#e0e0e0",
		Divider:       "#333333",
	},
}

// PaletteFor returns the palette of mode; unknown modes get the light one
func PaletteFor(mode Mode) Palette {
	if p, ok := palettes[mode]; ok {
		return p
	}
	return palettes[ModeLight]
}

type StoreParams struct {
	Storage ports.Storage
	Logger  ports.Logger
}

type Store struct {
	storage ports.Storage
	logger  ports.Logger

	mu   sync.RWMutex
	mode Mode
}

// NewStore reads the persisted mode. Missing or unknown values mean light.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Storage == nil {
		return nil, errors.NewConfigurationError("theme store requires storage", nil)
	}

	s := &Store{storage: params.Storage, logger: params.Logger, mode: ModeLight}

	raw, err := s.storage.Get(ctx, ports.KeyThemeMode)
	switch {
	case err == nil:
		if mode, ok := ParseMode(raw); ok {
			s.mode = mode
		} else if s.logger != nil {
			s.logger.Warn("Ignoring unknown theme mode", ports.F("value", raw))
		}
	case errors.IsNotFoundError(err):
	default:
		return nil, err
	}

	return s, nil
}

func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Store) Palette() Palette {
	return PaletteFor(s.Mode())
}

// Toggle flips between light and dark and returns the new mode
func (s *Store) Toggle(ctx context.Context) (Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.mode.Opposite()
	if err := s.storage.Set(ctx, ports.KeyThemeMode, string(next)); err != nil {
		return s.mode, err
	}
	s.mode = next
	return next, nil
}

func (s *Store) Set(ctx context.Context, mode Mode) error {
	if _, ok := ParseMode(string(mode)); !ok {
		return errors.NewValidationError(fmt.Sprintf("unknown theme mode %q", mode))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(ctx, ports.KeyThemeMode, string(mode)); err != nil {
		return err
	}
	s.mode = mode
	return nil
}
