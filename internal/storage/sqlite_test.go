package storage

import (
	"path/filepath"
	"testing"
)

func tempSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "laguz.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteSaveLoadRoundTrip(t *testing.T) {
	s := tempSQLiteStore(t)
	want := sampleSnapshot()
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	checkSnapshotEqual(t, got, want)
}

func TestSQLiteEmptyDatabase(t *testing.T) {
	s := tempSQLiteStore(t)
	snap, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Folders) != 0 || len(snap.Notes) != 0 {
		t.Errorf("snapshot not empty: %+v", snap)
	}
}

func TestSQLiteSaveReplacesPrevious(t *testing.T) {
	s := tempSQLiteStore(t)
	if err := s.Save(sampleSnapshot()); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	smaller := sampleSnapshot()
	smaller.Folders = smaller.Folders[:1]
	if err := s.Save(smaller); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Folders) != 1 || len(got.Notes) != 1 {
		t.Errorf("got %d folders, %d notes after replace", len(got.Folders), len(got.Notes))
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laguz.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	want := sampleSnapshot()
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	checkSnapshotEqual(t, got, want)
}
