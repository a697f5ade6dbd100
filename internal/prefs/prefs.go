// Package prefs persists user preferences: the default font, the last-open
// folder and note, and window geometry. The file is created with defaults on
// first run and written atomically on change and at shutdown.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/storage"
)

// Window holds the last window geometry reported by the presentation layer.
type Window struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// Preferences is the process-wide configuration state.
type Preferences struct {
	DefaultFont  models.FontSettings `json:"default_font"`
	LastFolderID string              `json:"last_folder_id,omitempty"`
	LastNoteID   string              `json:"last_note_id,omitempty"`
	Window       Window              `json:"window"`
}

// Default returns the first-run preferences.
func Default() Preferences {
	return Preferences{
		DefaultFont: models.FontSettings{Family: "Arial", Size: 12},
		Window:      Window{Width: 1200, Height: 800},
	}
}

// Store reads and writes the preferences file.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the preferences file location.
func (s *Store) Path() string { return s.path }

// Load reads preferences from disk. A missing file is first run and yields
// defaults with no error. An unparseable file yields defaults together with
// a wrapped ErrCorruptData so the caller can warn without aborting startup.
func (s *Store) Load() (Preferences, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("prefs: read %s: %w", s.path, err)
	}
	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("prefs: parse %s: %w: %v", s.path, apperr.ErrCorruptData, err)
	}
	if p.DefaultFont.Size <= 0 {
		p.DefaultFont.Size = Default().DefaultFont.Size
	}
	if p.DefaultFont.Family == "" {
		p.DefaultFont.Family = Default().DefaultFont.Family
	}
	return p, nil
}

// Save writes preferences atomically.
func (s *Store) Save(p Preferences) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("prefs: marshal: %w", err)
	}
	if err := storage.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("prefs: %w: %v", apperr.ErrStorageWrite, err)
	}
	return nil
}
