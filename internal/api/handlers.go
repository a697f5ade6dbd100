package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/domain"
	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/prefs"
)

// maxBodyBytes caps request bodies. Note bodies are unbounded by the data
// model; this is the documented soft ceiling of the transport.
const maxBodyBytes = 16 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status(r.Context()))
}

// ListFolders handles GET /folders.
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FolderListResponse{Folders: h.svc.ListFolders(r.Context())})
}

// CreateFolder handles POST /folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	f, err := h.svc.CreateFolder(r.Context(), req.Name, req.Color)
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// UpdateFolder handles PATCH /folders/{id}.
func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	var req UpdateFolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	f, err := h.svc.UpdateFolder(r.Context(), chi.URLParam(r, "id"), req.Name, req.Color)
	if err != nil {
		writeError(w, "update folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteFolder handles DELETE /folders/{id}. Contained notes are deleted too.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFolder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete folder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotes handles GET /folders/{id}/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListNotes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes})
}

// CreateNote handles POST /folders/{id}/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := h.svc.CreateNote(r.Context(), chi.URLParam(r, "id"), req.Title)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// GetNote handles GET /notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// UpdateNote handles PATCH /notes/{id}. An optional If-Match header carries
// the SHA-256 checksum of the body the client last saw; on mismatch the
// update is rejected with 409.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch := domain.NotePatch{
		Title:      req.Title,
		Body:       req.Body,
		FontFamily: req.FontFamily,
		FontSize:   req.FontSize,
		Bold:       req.Bold,
		Italic:     req.Italic,
	}
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	n, err := h.svc.UpdateNote(r.Context(), chi.URLParam(r, "id"), patch, ifMatch)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// DeleteNote handles DELETE /notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveNote handles POST /notes/{id}/move.
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FolderID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("folder_id is required"))
		return
	}
	n, err := h.svc.MoveNote(r.Context(), chi.URLParam(r, "id"), req.FolderID)
	if err != nil {
		writeError(w, "move note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Search handles GET /search?q=...&folder=... An empty query returns an
// empty result set.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	folder := r.URL.Query().Get("folder")
	results := h.svc.Search(r.Context(), q, folder)
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ExportNote handles GET /notes/{id}/export, returning the note as a plain
// text download: title line, blank line, body verbatim.
func (h *Handler) ExportNote(w http.ResponseWriter, r *http.Request) {
	n, data, err := h.svc.ExportNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "export note", err)
		return
	}
	filename := exportFilename(n.Title)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ImportNote handles POST /folders/{id}/import with a text/plain body.
func (h *Handler) ImportNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	n, err := h.svc.ImportNote(r.Context(), chi.URLParam(r, "id"), data)
	if err != nil {
		writeError(w, "import note", err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// GetPreferences handles GET /preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Preferences(r.Context()))
}

// PutPreferences handles PUT /preferences.
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var p prefs.Preferences
	if !decodeBody(w, r, &p) {
		return
	}
	if err := h.svc.UpdatePreferences(r.Context(), p); err != nil {
		writeError(w, "update preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Save handles POST /save: the explicit save trigger the presentation layer
// issues at transition points (navigation-away, shutdown) and for retries
// after a failed write.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SaveAll(r.Context()); err != nil {
		writeError(w, "save", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exportFilename derives a safe download name from a note title.
func exportFilename(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "note"
	}
	return fmt.Sprintf("%s.txt", name)
}
