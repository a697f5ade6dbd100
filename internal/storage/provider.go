// Package storage persists the folder and note graph as an on-disk snapshot.
package storage

import "github.com/starford/laguz/internal/models"

// Provider is the interface for snapshot persistence.
type Provider interface {
	// Load reconstructs the snapshot from disk. A missing store is first run
	// and yields an empty snapshot; unparseable data yields ErrCorruptData.
	Load() (*models.Snapshot, error)
	// Save writes a complete, consistent snapshot. The write is atomic with
	// respect to process crash: a partially written snapshot is never visible
	// to a subsequent Load. Failures wrap ErrStorageWrite.
	Save(*models.Snapshot) error
	// Close releases any resources held by the backend.
	Close() error
}
