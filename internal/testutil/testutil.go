// Package testutil provides shared test helpers for setting up stores and services.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/prefs"
	"github.com/starford/laguz/internal/storage"
)

// TestStore creates a JSON snapshot store in a temporary directory.
func TestStore(t *testing.T) *storage.JSONStore {
	t.Helper()
	store, err := storage.NewJSONStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	return store
}

// TestService creates an opened note service backed by temporary storage
// and preferences.
func TestService(t *testing.T) *noteservice.Service {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewJSONStore(dir)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	svc := noteservice.NewService(store, prefs.NewStore(filepath.Join(dir, "prefs.json")))
	if err := svc.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return svc
}
