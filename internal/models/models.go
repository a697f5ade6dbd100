// Package models defines the domain types for Laguz.
package models

import "time"

// FontSettings describes the text styling of a note.
type FontSettings struct {
	Family string `json:"family"`
	Size   int    `json:"size"`
	Bold   bool   `json:"bold"`
	Italic bool   `json:"italic"`
}

// Folder is a named, colored grouping that owns an ordered set of notes.
// NoteIDs is the authoritative ordering (creation order, append-only).
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	NoteIDs   []string  `json:"note_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// Note is a titled text body with font styling, owned by exactly one folder.
// FolderID is a lookup key, never an ownership pointer; the owning folder's
// NoteIDs sequence is the ownership relation.
type Note struct {
	ID         string       `json:"id"`
	FolderID   string       `json:"folder_id"`
	Title      string       `json:"title"`
	Body       string       `json:"body"`
	Font       FontSettings `json:"font"`
	CreatedAt  time.Time    `json:"created_at"`
	ModifiedAt time.Time    `json:"modified_at"`
}

// Snapshot is the complete persisted state of all folders and notes.
// Folders appear in creation order; notes appear grouped by folder in the
// folder's sequence order.
type Snapshot struct {
	Folders []Folder `json:"folders"`
	Notes   []Note   `json:"notes"`
}
