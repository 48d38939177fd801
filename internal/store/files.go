package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// --- File operations ---

// UpsertFile inserts or replaces the record for f.Path and sets f.ID.
func (s *Store) UpsertFile(f *File) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO files (path, hash, module, revision, last_indexed) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   hash = excluded.hash, module = excluded.module,
		   revision = excluded.revision, last_indexed = excluded.last_indexed
		 RETURNING id`,
		f.Path, f.Hash, f.Module, f.Revision, f.LastIndexed,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert file: %w", err)
	}
	f.ID = id
	return id, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, hash, module, revision, last_indexed FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Hash, &f.Module, &f.Revision, &f.LastIndexed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// Files returns every tracked file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT id, path, hash, module, revision, last_indexed FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Hash, &f.Module, &f.Revision, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFile removes the record for path.
func (s *Store) DeleteFile(path string) error {
	if _, err := s.db.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
