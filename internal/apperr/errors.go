// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a referenced folder or note id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for rejected input (empty folder name, non-positive font size).
	ErrInvalid = errors.New("invalid argument")
	// ErrConflict is returned when an If-Match checksum does not match the stored body.
	ErrConflict = errors.New("conflict")
	// ErrCorruptData is returned when persisted data cannot be parsed or fails validation.
	ErrCorruptData = errors.New("corrupt data")
	// ErrStorageWrite is returned when persisting a snapshot or preferences fails.
	// In-memory state remains valid and the save may be retried.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrFormat is returned when imported content is not decodable as UTF-8 text.
	ErrFormat = errors.New("unsupported format")
)
