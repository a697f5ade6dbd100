// Package search implements the substring scan over the in-memory model.
// There is no persistent index: every query walks the live note graph.
package search

import (
	"iter"
	"strings"

	"github.com/starford/laguz/internal/domain"
	"github.com/starford/laguz/internal/models"
)

// Scope restricts a query to one folder. The zero value matches all folders.
type Scope struct {
	FolderID string
}

// All is the unrestricted scope.
var All = Scope{}

// Folder returns a scope restricted to one folder's notes.
func Folder(id string) Scope {
	return Scope{FolderID: id}
}

// Notes yields the notes matching query within scope. Matching is a
// case-insensitive substring test against title or body. The sequence is
// lazy, finite, and restartable; iteration order is folder creation order,
// then note creation order within each folder.
//
// An empty or all-whitespace query yields nothing: the alternative (matching
// everything) turns an accidental empty search box into a full scan.
func Notes(m *domain.Model, query string, scope Scope) iter.Seq[models.Note] {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(yield func(models.Note) bool) {
		if q == "" {
			return
		}
		for _, f := range m.ListFolders() {
			if scope.FolderID != "" && scope.FolderID != f.ID {
				continue
			}
			notes, err := m.ListNotes(f.ID)
			if err != nil {
				continue
			}
			for _, n := range notes {
				if !matches(n, q) {
					continue
				}
				if !yield(n) {
					return
				}
			}
		}
	}
}

func matches(n models.Note, q string) bool {
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Body), q)
}
