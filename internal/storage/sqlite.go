package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS folders (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	id          TEXT PRIMARY KEY,
	folder_id   TEXT NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	font_family TEXT NOT NULL DEFAULT '',
	font_size   INTEGER NOT NULL DEFAULT 12,
	bold        INTEGER NOT NULL DEFAULT 0,
	italic      INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	modified_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_folder ON notes(folder_id, position);
`

// SQLiteStore persists the snapshot in a SQLite database. Save replaces the
// full contents inside one transaction, which gives the same crash-atomicity
// guarantee as the JSON backend's rename.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (or creates) the database and applies the schema.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

// Load reconstructs the snapshot from the folders and notes tables.
func (s *SQLiteStore) Load() (*models.Snapshot, error) {
	snap := &models.Snapshot{}

	rows, err := s.conn.Query(`SELECT id, name, color, created_at FROM folders ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("storage: query folders: %w: %v", apperr.ErrCorruptData, err)
	}
	defer rows.Close()
	folderIdx := make(map[string]int)
	for rows.Next() {
		var f models.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.Color, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan folder: %w: %v", apperr.ErrCorruptData, err)
		}
		folderIdx[f.ID] = len(snap.Folders)
		snap.Folders = append(snap.Folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: folders: %w: %v", apperr.ErrCorruptData, err)
	}

	noteRows, err := s.conn.Query(`
		SELECT id, folder_id, position, title, body, font_family, font_size, bold, italic, created_at, modified_at
		FROM notes ORDER BY folder_id, position`)
	if err != nil {
		return nil, fmt.Errorf("storage: query notes: %w: %v", apperr.ErrCorruptData, err)
	}
	defer noteRows.Close()
	for noteRows.Next() {
		var n models.Note
		var pos int
		if err := noteRows.Scan(&n.ID, &n.FolderID, &pos, &n.Title, &n.Body,
			&n.Font.Family, &n.Font.Size, &n.Font.Bold, &n.Font.Italic,
			&n.CreatedAt, &n.ModifiedAt); err != nil {
			return nil, fmt.Errorf("storage: scan note: %w: %v", apperr.ErrCorruptData, err)
		}
		i, ok := folderIdx[n.FolderID]
		if !ok {
			return nil, fmt.Errorf("storage: note %s references unknown folder %s: %w", n.ID, n.FolderID, apperr.ErrCorruptData)
		}
		snap.Folders[i].NoteIDs = append(snap.Folders[i].NoteIDs, n.ID)
		snap.Notes = append(snap.Notes, n)
	}
	if err := noteRows.Err(); err != nil {
		return nil, fmt.Errorf("storage: notes: %w: %v", apperr.ErrCorruptData, err)
	}

	return snap, nil
}

// Save replaces the stored snapshot inside a single transaction.
func (s *SQLiteStore) Save(snap *models.Snapshot) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("storage: %w: begin tx: %v", apperr.ErrStorageWrite, err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM notes`); err != nil {
		return fmt.Errorf("storage: %w: clear notes: %v", apperr.ErrStorageWrite, err)
	}
	if _, err := tx.Exec(`DELETE FROM folders`); err != nil {
		return fmt.Errorf("storage: %w: clear folders: %v", apperr.ErrStorageWrite, err)
	}

	folderStmt, err := tx.Prepare(`INSERT INTO folders (id, name, color, position, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage: %w: prepare folder insert: %v", apperr.ErrStorageWrite, err)
	}
	defer folderStmt.Close()
	for i, f := range snap.Folders {
		if _, err := folderStmt.Exec(f.ID, f.Name, f.Color, i, f.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("storage: %w: insert folder: %v", apperr.ErrStorageWrite, err)
		}
	}

	noteStmt, err := tx.Prepare(`
		INSERT INTO notes (id, folder_id, position, title, body, font_family, font_size, bold, italic, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage: %w: prepare note insert: %v", apperr.ErrStorageWrite, err)
	}
	defer noteStmt.Close()
	// Position within the owning folder comes from the folder's sequence.
	positions := make(map[string]int, len(snap.Notes))
	for _, f := range snap.Folders {
		for i, nid := range f.NoteIDs {
			positions[nid] = i
		}
	}
	for _, n := range snap.Notes {
		if _, err := noteStmt.Exec(n.ID, n.FolderID, positions[n.ID], n.Title, n.Body,
			n.Font.Family, n.Font.Size, n.Font.Bold, n.Font.Italic,
			n.CreatedAt.UTC(), n.ModifiedAt.UTC()); err != nil {
			return fmt.Errorf("storage: %w: insert note: %v", apperr.ErrStorageWrite, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: %w: commit: %v", apperr.ErrStorageWrite, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// Compile-time interface checks for both backends.
var (
	_ Provider = (*SQLiteStore)(nil)
	_ Provider = (*JSONStore)(nil)
)
