// Package domain holds the in-memory folder and note graph. The Model is the
// single source of truth during a session: all mutations are synchronous and
// immediately visible to subsequent reads, persistence is a separate step
// handled by the storage layer.
package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

// NotePatch is a partial update of a note. Nil fields are left unchanged.
type NotePatch struct {
	Title      *string
	Body       *string
	FontFamily *string
	FontSize   *int
	Bold       *bool
	Italic     *bool
}

// Model is the in-memory folder and note graph.
//
// Invariant: every note id appears in exactly one folder's NoteIDs sequence,
// and that folder's id equals the note's FolderID.
type Model struct {
	folders     map[string]*models.Folder
	notes       map[string]*models.Note
	folderOrder []string

	now func() time.Time
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		folders: make(map[string]*models.Folder),
		notes:   make(map[string]*models.Note),
		now:     time.Now,
	}
}

// cloneFolder returns a copy that shares no backing storage with the live
// folder. Returned values outlive the service lock, so an in-place
// DeleteFunc on the live NoteIDs slice must never be visible through them.
func cloneFolder(f *models.Folder) models.Folder {
	out := *f
	out.NoteIDs = slices.Clone(f.NoteIDs)
	return out
}

// CreateFolder adds a folder with the given name and color.
func (m *Model) CreateFolder(name, color string) (models.Folder, error) {
	if name == "" {
		return models.Folder{}, fmt.Errorf("domain: folder name is required: %w", apperr.ErrInvalid)
	}
	f := &models.Folder{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		CreatedAt: m.now(),
	}
	m.folders[f.ID] = f
	m.folderOrder = append(m.folderOrder, f.ID)
	return cloneFolder(f), nil
}

// RenameFolder changes a folder's name.
func (m *Model) RenameFolder(id, name string) (models.Folder, error) {
	f, ok := m.folders[id]
	if !ok {
		return models.Folder{}, fmt.Errorf("domain: folder %s: %w", id, apperr.ErrNotFound)
	}
	if name == "" {
		return models.Folder{}, fmt.Errorf("domain: folder name is required: %w", apperr.ErrInvalid)
	}
	f.Name = name
	return cloneFolder(f), nil
}

// SetFolderColor changes a folder's color.
func (m *Model) SetFolderColor(id, color string) (models.Folder, error) {
	f, ok := m.folders[id]
	if !ok {
		return models.Folder{}, fmt.Errorf("domain: folder %s: %w", id, apperr.ErrNotFound)
	}
	f.Color = color
	return cloneFolder(f), nil
}

// DeleteFolder removes a folder and cascades to its contained notes.
func (m *Model) DeleteFolder(id string) error {
	f, ok := m.folders[id]
	if !ok {
		return fmt.Errorf("domain: folder %s: %w", id, apperr.ErrNotFound)
	}
	for _, noteID := range f.NoteIDs {
		delete(m.notes, noteID)
	}
	delete(m.folders, id)
	m.folderOrder = slices.DeleteFunc(m.folderOrder, func(fid string) bool { return fid == id })
	return nil
}

// Folder returns a folder by id.
func (m *Model) Folder(id string) (models.Folder, error) {
	f, ok := m.folders[id]
	if !ok {
		return models.Folder{}, fmt.Errorf("domain: folder %s: %w", id, apperr.ErrNotFound)
	}
	return cloneFolder(f), nil
}

// ListFolders returns all folders in creation order.
func (m *Model) ListFolders() []models.Folder {
	out := make([]models.Folder, 0, len(m.folderOrder))
	for _, id := range m.folderOrder {
		out = append(out, cloneFolder(m.folders[id]))
	}
	return out
}

// CreateNote adds a note to the given folder with the supplied default font.
func (m *Model) CreateNote(folderID, title string, font models.FontSettings) (models.Note, error) {
	f, ok := m.folders[folderID]
	if !ok {
		return models.Note{}, fmt.Errorf("domain: folder %s: %w", folderID, apperr.ErrNotFound)
	}
	ts := m.now()
	n := &models.Note{
		ID:         uuid.NewString(),
		FolderID:   folderID,
		Title:      title,
		Font:       font,
		CreatedAt:  ts,
		ModifiedAt: ts,
	}
	m.notes[n.ID] = n
	f.NoteIDs = append(f.NoteIDs, n.ID)
	return *n, nil
}

// Note returns a note by id.
func (m *Model) Note(id string) (models.Note, error) {
	n, ok := m.notes[id]
	if !ok {
		return models.Note{}, fmt.Errorf("domain: note %s: %w", id, apperr.ErrNotFound)
	}
	return *n, nil
}

// ListNotes returns the notes of a folder in the folder's sequence order.
func (m *Model) ListNotes(folderID string) ([]models.Note, error) {
	f, ok := m.folders[folderID]
	if !ok {
		return nil, fmt.Errorf("domain: folder %s: %w", folderID, apperr.ErrNotFound)
	}
	out := make([]models.Note, 0, len(f.NoteIDs))
	for _, id := range f.NoteIDs {
		out = append(out, *m.notes[id])
	}
	return out, nil
}

// UpdateNote applies a partial update and bumps ModifiedAt.
func (m *Model) UpdateNote(id string, patch NotePatch) (models.Note, error) {
	n, ok := m.notes[id]
	if !ok {
		return models.Note{}, fmt.Errorf("domain: note %s: %w", id, apperr.ErrNotFound)
	}
	if patch.FontSize != nil && *patch.FontSize <= 0 {
		return models.Note{}, fmt.Errorf("domain: font size must be positive: %w", apperr.ErrInvalid)
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Body != nil {
		n.Body = *patch.Body
	}
	if patch.FontFamily != nil {
		n.Font.Family = *patch.FontFamily
	}
	if patch.FontSize != nil {
		n.Font.Size = *patch.FontSize
	}
	if patch.Bold != nil {
		n.Font.Bold = *patch.Bold
	}
	if patch.Italic != nil {
		n.Font.Italic = *patch.Italic
	}
	n.ModifiedAt = m.now()
	return *n, nil
}

// DeleteNote removes a note and takes it out of its owning folder's sequence.
func (m *Model) DeleteNote(id string) error {
	n, ok := m.notes[id]
	if !ok {
		return fmt.Errorf("domain: note %s: %w", id, apperr.ErrNotFound)
	}
	if f, ok := m.folders[n.FolderID]; ok {
		f.NoteIDs = slices.DeleteFunc(f.NoteIDs, func(nid string) bool { return nid == id })
	}
	delete(m.notes, id)
	return nil
}

// MoveNote reassigns a note to another folder, removing it from the old
// folder's sequence and appending it to the new one. Moving a note into the
// folder it already belongs to keeps its position.
func (m *Model) MoveNote(id, newFolderID string) (models.Note, error) {
	n, ok := m.notes[id]
	if !ok {
		return models.Note{}, fmt.Errorf("domain: note %s: %w", id, apperr.ErrNotFound)
	}
	dst, ok := m.folders[newFolderID]
	if !ok {
		return models.Note{}, fmt.Errorf("domain: folder %s: %w", newFolderID, apperr.ErrNotFound)
	}
	if n.FolderID == newFolderID {
		return *n, nil
	}
	if src, ok := m.folders[n.FolderID]; ok {
		src.NoteIDs = slices.DeleteFunc(src.NoteIDs, func(nid string) bool { return nid == id })
	}
	dst.NoteIDs = append(dst.NoteIDs, id)
	n.FolderID = newFolderID
	n.ModifiedAt = m.now()
	return *n, nil
}

// Snapshot produces the complete persistable state. Folders appear in
// creation order, notes grouped by folder in sequence order.
func (m *Model) Snapshot() *models.Snapshot {
	snap := &models.Snapshot{
		Folders: m.ListFolders(),
		Notes:   make([]models.Note, 0, len(m.notes)),
	}
	for _, fid := range m.folderOrder {
		for _, nid := range m.folders[fid].NoteIDs {
			snap.Notes = append(snap.Notes, *m.notes[nid])
		}
	}
	return snap
}

// Restore replaces the model contents with the given snapshot after
// validating referential consistency. On error the model is left unchanged.
func (m *Model) Restore(snap *models.Snapshot) error {
	folders := make(map[string]*models.Folder, len(snap.Folders))
	notes := make(map[string]*models.Note, len(snap.Notes))
	order := make([]string, 0, len(snap.Folders))

	for i := range snap.Folders {
		f := snap.Folders[i]
		f.NoteIDs = slices.Clone(f.NoteIDs)
		if f.ID == "" {
			return fmt.Errorf("domain: folder without id: %w", apperr.ErrCorruptData)
		}
		if _, dup := folders[f.ID]; dup {
			return fmt.Errorf("domain: duplicate folder %s: %w", f.ID, apperr.ErrCorruptData)
		}
		folders[f.ID] = &f
		order = append(order, f.ID)
	}
	for i := range snap.Notes {
		n := snap.Notes[i]
		if n.ID == "" {
			return fmt.Errorf("domain: note without id: %w", apperr.ErrCorruptData)
		}
		if _, dup := notes[n.ID]; dup {
			return fmt.Errorf("domain: duplicate note %s: %w", n.ID, apperr.ErrCorruptData)
		}
		if _, ok := folders[n.FolderID]; !ok {
			return fmt.Errorf("domain: note %s references unknown folder %s: %w", n.ID, n.FolderID, apperr.ErrCorruptData)
		}
		notes[n.ID] = &n
	}
	// Every folder sequence entry must resolve to a note owned by that folder,
	// and every note must be claimed by exactly one folder.
	claimed := make(map[string]struct{}, len(notes))
	for _, f := range folders {
		for _, nid := range f.NoteIDs {
			n, ok := notes[nid]
			if !ok {
				return fmt.Errorf("domain: folder %s lists unknown note %s: %w", f.ID, nid, apperr.ErrCorruptData)
			}
			if n.FolderID != f.ID {
				return fmt.Errorf("domain: note %s listed by folder %s but owned by %s: %w", nid, f.ID, n.FolderID, apperr.ErrCorruptData)
			}
			if _, dup := claimed[nid]; dup {
				return fmt.Errorf("domain: note %s claimed twice: %w", nid, apperr.ErrCorruptData)
			}
			claimed[nid] = struct{}{}
		}
	}
	if len(claimed) != len(notes) {
		return fmt.Errorf("domain: %d notes not owned by any folder: %w", len(notes)-len(claimed), apperr.ErrCorruptData)
	}

	m.folders = folders
	m.notes = notes
	m.folderOrder = order
	return nil
}
