package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/checksum"
	"github.com/starford/laguz/internal/models"
)

// SnapshotFile is the aggregate file name inside the data directory.
const SnapshotFile = "snapshot.json"

// snapshotVersion is bumped on incompatible envelope changes.
const snapshotVersion = 1

// envelope is the self-describing on-disk form: a format version and a
// checksum over the payload let Load reject truncated or hand-edited files
// explicitly instead of loading garbage.
type envelope struct {
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	Payload  json.RawMessage `json:"payload"`
}

// JSONStore persists the snapshot as a single JSON file, written atomically.
type JSONStore struct {
	path     string
	lastSave atomic.Int64 // unix nanos of the last successful Save
}

// NewJSONStore creates a store writing to dir/snapshot.json. The directory
// is created if missing.
func NewJSONStore(dir string) (*JSONStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	return &JSONStore{path: filepath.Join(abs, SnapshotFile)}, nil
}

// Path returns the snapshot file location.
func (s *JSONStore) Path() string { return s.path }

// Load reads and validates the snapshot file.
func (s *JSONStore) Load() (*models.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		// First run.
		return &models.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read snapshot: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("storage: parse envelope: %w: %v", apperr.ErrCorruptData, err)
	}
	if env.Version != snapshotVersion {
		return nil, fmt.Errorf("storage: unsupported snapshot version %d: %w", env.Version, apperr.ErrCorruptData)
	}
	if !checksum.Matches(env.Payload, env.Checksum) {
		return nil, fmt.Errorf("storage: snapshot checksum mismatch: %w", apperr.ErrCorruptData)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(env.Payload, &snap); err != nil {
		return nil, fmt.Errorf("storage: parse snapshot: %w: %v", apperr.ErrCorruptData, err)
	}
	return &snap, nil
}

// Save writes the snapshot atomically.
func (s *JSONStore) Save(snap *models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("storage: marshal snapshot: %w", err)
	}
	env := envelope{
		Version:  snapshotVersion,
		Checksum: checksum.Sum(payload),
		Payload:  payload,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal envelope: %w", err)
	}
	if err := WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("storage: %w: %v", apperr.ErrStorageWrite, err)
	}
	s.lastSave.Store(time.Now().UnixNano())
	return nil
}

// Close is a no-op for the file backend.
func (s *JSONStore) Close() error { return nil }

// LastSave returns the time of the last successful Save, or the zero time.
// The watcher uses it to tell this process's own writes apart from external
// ones.
func (s *JSONStore) LastSave() time.Time {
	n := s.lastSave.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
