package store

import (
	"fmt"

	"github.com/jward/yindex/internal/index"
)

// Store is also an unbuffered index.Sink: each row is inserted as soon as it
// is emitted. Use CommitBatch with an index.Collector to write a whole run in
// one transaction instead.
var _ index.Sink = (*Store)(nil)

// CreateTables ensures the tables exist.
func (s *Store) CreateTables() error {
	return s.Migrate()
}

func (s *Store) InsertModule(row *index.ModuleRow) error {
	if _, err := s.db.Exec(row.SQL()); err != nil {
		return fmt.Errorf("insert module %s: %w", row.Module, err)
	}
	return nil
}

func (s *Store) InsertNode(row *index.IndexRow) error {
	if _, err := s.db.Exec(row.SQL()); err != nil {
		return fmt.Errorf("insert node %s: %w", row.Path, err)
	}
	return nil
}
