package clip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ThemeKey is the storage key for the display theme. It is independent of
// the history and never touched by the HistoryManager.
const ThemeKey = "theme"

// Theme is a display surface colour scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ErrInvalidTheme is returned when setting a theme other than dark or light.
var ErrInvalidTheme = errors.New("invalid theme")

// ParseTheme validates a raw theme string.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeDark, ThemeLight:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidTheme, s, ThemeDark, ThemeLight)
	}
}

// Preferences stores display surface settings next to the history.
type Preferences struct {
	storage Storage
}

// NewPreferences creates a Preferences backed by storage.
func NewPreferences(storage Storage) *Preferences {
	return &Preferences{storage: storage}
}

// Theme returns the stored theme, defaulting to ThemeDark when unset.
func (p *Preferences) Theme(ctx context.Context) (Theme, error) {
	data, err := p.storage.Get(ctx, ThemeKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ThemeDark, nil
		}
		return "", fmt.Errorf("reading theme: %w", err)
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("decoding theme: %w", err)
	}
	return ParseTheme(raw)
}

// SetTheme persists theme.
func (p *Preferences) SetTheme(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	data, err := json.Marshal(string(theme))
	if err != nil {
		return fmt.Errorf("encoding theme: %w", err)
	}
	if err := p.storage.Put(ctx, ThemeKey, data); err != nil {
		return fmt.Errorf("writing theme: %w", err)
	}
	return nil
}
