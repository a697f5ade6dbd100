// Package noteservice coordinates the domain model, snapshot storage, and
// preferences behind the surface consumed by the presentation layer (HTTP
// API and MCP server). Every mutation is applied to the in-memory model
// first and then persisted; a failed persist keeps the model intact so the
// caller can retry the save.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/checksum"
	"github.com/starford/laguz/internal/domain"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/prefs"
	"github.com/starford/laguz/internal/search"
	"github.com/starford/laguz/internal/storage"
	"github.com/starford/laguz/internal/textfile"
)

// EventFunc is called after each successful model mutation.
// entity is "folder" or "note"; kind is "created", "updated", or "deleted".
type EventFunc func(entity, kind, id string)

// Status summarises the session state for the presentation layer. The
// warnings carry load failures the user must see: corrupt data never aborts
// startup, but it is never silent either.
type Status struct {
	Folders      int    `json:"folders"`
	Notes        int    `json:"notes"`
	LoadWarning  string `json:"load_warning,omitempty"`
	PrefsWarning string `json:"prefs_warning,omitempty"`
}

// Service owns the session. The domain model itself is single-threaded by
// design; the mutex serialises the HTTP handlers onto it, which stands in
// for the original single UI-dispatch thread.
type Service struct {
	mu sync.Mutex

	model      *domain.Model
	store      storage.Provider
	prefStore  *prefs.Store
	prefCached prefs.Preferences

	notify       EventFunc
	loadWarning  string
	prefsWarning string
}

// NewService creates a service over the given backends. Call Open before use.
func NewService(store storage.Provider, prefStore *prefs.Store) *Service {
	return &Service{
		model:      domain.NewModel(),
		store:      store,
		prefStore:  prefStore,
		prefCached: prefs.Default(),
	}
}

// SetNotify installs the mutation event callback.
func (s *Service) SetNotify(fn EventFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// Open loads the snapshot and preferences. Corrupt data is not fatal: the
// session starts from an empty model and the warning is surfaced through
// Status so the presentation layer can tell the user.
func (s *Service) Open(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load()
	switch {
	case err == nil:
		if restoreErr := s.model.Restore(snap); restoreErr != nil {
			s.loadWarning = restoreErr.Error()
			slog.Warn("stored snapshot is inconsistent, starting empty",
				slog.String("error", restoreErr.Error()))
		}
	case errors.Is(err, apperr.ErrCorruptData):
		s.loadWarning = err.Error()
		slog.Warn("stored snapshot is unreadable, starting empty",
			slog.String("error", err.Error()))
	default:
		return fmt.Errorf("noteservice: load snapshot: %w", err)
	}

	p, err := s.prefStore.Load()
	if err != nil {
		if !errors.Is(err, apperr.ErrCorruptData) {
			return fmt.Errorf("noteservice: load preferences: %w", err)
		}
		s.prefsWarning = err.Error()
		slog.Warn("preferences file is unreadable, using defaults",
			slog.String("error", err.Error()))
	}
	s.prefCached = p
	return nil
}

// Close persists the snapshot and preferences and releases the backend.
func (s *Service) Close(ctx context.Context) error {
	saveErr := s.SaveAll(ctx)

	s.mu.Lock()
	prefErr := s.prefStore.Save(s.prefCached)
	s.mu.Unlock()

	closeErr := s.store.Close()
	return errors.Join(saveErr, prefErr, closeErr)
}

// Status reports session counters and any load warning.
func (s *Service) Status(_ context.Context) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	folders := s.model.ListFolders()
	notes := 0
	for _, f := range folders {
		notes += len(f.NoteIDs)
	}
	return Status{
		Folders:      len(folders),
		Notes:        notes,
		LoadWarning:  s.loadWarning,
		PrefsWarning: s.prefsWarning,
	}
}

// ListFolders returns all folders in creation order.
func (s *Service) ListFolders(_ context.Context) []models.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.ListFolders()
}

// CreateFolder adds a folder and persists the snapshot.
func (s *Service) CreateFolder(_ context.Context, name, color string) (models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.model.CreateFolder(name, color)
	if err != nil {
		return models.Folder{}, err
	}
	s.emit("folder", "created", f.ID)
	return f, s.persist()
}

// UpdateFolder renames a folder and/or changes its color.
func (s *Service) UpdateFolder(_ context.Context, id string, name, color *string) (models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.model.Folder(id)
	if err != nil {
		return models.Folder{}, err
	}
	if name != nil {
		if f, err = s.model.RenameFolder(id, *name); err != nil {
			return models.Folder{}, err
		}
	}
	if color != nil {
		if f, err = s.model.SetFolderColor(id, *color); err != nil {
			return models.Folder{}, err
		}
	}
	s.emit("folder", "updated", id)
	return f, s.persist()
}

// DeleteFolder removes a folder and all contained notes.
func (s *Service) DeleteFolder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.model.DeleteFolder(id); err != nil {
		return err
	}
	s.emit("folder", "deleted", id)
	return s.persist()
}

// ListNotes returns the notes of a folder in sequence order.
func (s *Service) ListNotes(_ context.Context, folderID string) ([]models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.ListNotes(folderID)
}

// GetNote returns a note by id.
func (s *Service) GetNote(_ context.Context, id string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Note(id)
}

// CreateNote adds a note titled title to the folder. Font settings default
// from the current preferences.
func (s *Service) CreateNote(_ context.Context, folderID, title string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.model.CreateNote(folderID, title, s.prefCached.DefaultFont)
	if err != nil {
		return models.Note{}, err
	}
	s.emit("note", "created", n.ID)
	return n, s.persist()
}

// UpdateNote applies a partial update. When ifMatch is non-empty it must be
// the SHA-256 checksum of the current body, otherwise the update is rejected
// with ErrConflict (a stale editor tab must not clobber a newer autosave).
func (s *Service) UpdateNote(_ context.Context, id string, patch domain.NotePatch, ifMatch string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.model.Note(id)
	if err != nil {
		return models.Note{}, err
	}
	if ifMatch != "" && !checksum.Matches([]byte(existing.Body), ifMatch) {
		return models.Note{}, fmt.Errorf("noteservice: note %s: %w", id, apperr.ErrConflict)
	}
	n, err := s.model.UpdateNote(id, patch)
	if err != nil {
		return models.Note{}, err
	}
	s.emit("note", "updated", id)
	return n, s.persist()
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.model.DeleteNote(id); err != nil {
		return err
	}
	s.emit("note", "deleted", id)
	return s.persist()
}

// MoveNote reassigns a note to another folder.
func (s *Service) MoveNote(_ context.Context, id, folderID string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.model.MoveNote(id, folderID)
	if err != nil {
		return models.Note{}, err
	}
	s.emit("note", "updated", id)
	return n, s.persist()
}

// Search returns the notes matching query, optionally scoped to one folder.
func (s *Service) Search(_ context.Context, query, folderID string) []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	scope := search.All
	if folderID != "" {
		scope = search.Folder(folderID)
	}
	out := []models.Note{}
	for n := range search.Notes(s.model, query, scope) {
		out = append(out, n)
	}
	return out
}

// ExportNote renders a note as plain text.
func (s *Service) ExportNote(_ context.Context, id string) (models.Note, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.model.Note(id)
	if err != nil {
		return models.Note{}, nil, err
	}
	return n, textfile.Export(n), nil
}

// ImportNote creates a note in the folder from plain text content.
func (s *Service) ImportNote(_ context.Context, folderID string, data []byte) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	title, body, err := textfile.Import(data)
	if err != nil {
		return models.Note{}, err
	}
	n, err := s.model.CreateNote(folderID, title, s.prefCached.DefaultFont)
	if err != nil {
		return models.Note{}, err
	}
	if body != "" {
		if n, err = s.model.UpdateNote(n.ID, domain.NotePatch{Body: &body}); err != nil {
			return models.Note{}, err
		}
	}
	s.emit("note", "created", n.ID)
	return n, s.persist()
}

// SaveAll persists the current snapshot explicitly.
func (s *Service) SaveAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}

// Preferences returns the current preferences.
func (s *Service) Preferences(_ context.Context) prefs.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefCached
}

// UpdatePreferences replaces the preferences and persists them.
func (s *Service) UpdatePreferences(_ context.Context, p prefs.Preferences) error {
	if p.DefaultFont.Size <= 0 {
		return fmt.Errorf("noteservice: default font size must be positive: %w", apperr.ErrInvalid)
	}
	if p.DefaultFont.Family == "" {
		return fmt.Errorf("noteservice: default font family is required: %w", apperr.ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefCached = p
	return s.prefStore.Save(p)
}

// persist writes the snapshot. Callers hold s.mu. The model keeps the
// mutation even when the write fails; the error tells the caller the change
// is not yet durable.
func (s *Service) persist() error {
	if err := s.store.Save(s.model.Snapshot()); err != nil {
		slog.Error("snapshot save failed, in-memory state kept",
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (s *Service) emit(entity, kind, id string) {
	if s.notify != nil {
		s.notify(entity, kind, id)
	}
}
