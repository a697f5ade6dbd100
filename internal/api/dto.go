package api

import (
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/prefs"
)

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// UpdateFolderRequest is a partial folder update; nil fields are unchanged.
type UpdateFolderRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title string `json:"title"`
}

// UpdateNoteRequest is a partial note update; nil fields are unchanged.
type UpdateNoteRequest struct {
	Title      *string `json:"title"`
	Body       *string `json:"body"`
	FontFamily *string `json:"font_family"`
	FontSize   *int    `json:"font_size"`
	Bold       *bool   `json:"bold"`
	Italic     *bool   `json:"italic"`
}

// MoveNoteRequest names the destination folder for a note move.
type MoveNoteRequest struct {
	FolderID string `json:"folder_id"`
}

// FolderListResponse wraps folder listings.
type FolderListResponse struct {
	Folders []models.Folder `json:"folders"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
}

// SearchResponse wraps search results in match order.
type SearchResponse struct {
	Results []models.Note `json:"results"`
}

// PreferencesResponse wraps the preferences document.
type PreferencesResponse = prefs.Preferences
