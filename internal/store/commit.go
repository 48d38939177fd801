package store

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jward/yindex/internal/index"
)

// CommitBatch inserts all buffered rows of a Collector into SQLite within a
// single transaction. Module rows go first, then node rows, each in emission
// order. Rows are inserted through their rendered SQL so the database holds
// exactly what an emitted script would produce.
func (s *Store) CommitBatch(batch *index.Collector) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertBatchTx(tx, batch); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// ReplaceBatch is CommitBatch preceded, in the same transaction, by deleting
// the existing rows of every module revision the batch has a module row for.
func (s *Store) ReplaceBatch(batch *index.Collector) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace batch: begin: %w", err)
	}
	defer tx.Rollback()

	for i := range batch.Modules {
		row := &batch.Modules[i]
		if err := deleteModuleTx(tx, unescapeSQL(row.Module), unescapeSQL(row.Revision)); err != nil {
			return fmt.Errorf("replace batch: %w", err)
		}
	}
	if err := insertBatchTx(tx, batch); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace batch: %w", err)
	}
	return nil
}

func insertBatchTx(tx *sql.Tx, batch *index.Collector) error {
	for i := range batch.Modules {
		row := &batch.Modules[i]
		if _, err := tx.Exec(row.SQL()); err != nil {
			return fmt.Errorf("commit batch: module %q: %w", row.Module, err)
		}
	}
	for i := range batch.Nodes {
		row := &batch.Nodes[i]
		if _, err := tx.Exec(row.SQL()); err != nil {
			return fmt.Errorf("commit batch: node %q: %w", row.Path, err)
		}
	}
	return nil
}

func deleteModuleTx(tx *sql.Tx, module, revision string) error {
	for _, table := range []string{"yindex", "modules"} {
		query, args, err := sb.Delete(table).Where(sq.Eq{"module": module, "revision": revision}).ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("delete %s rows of %s: %w", table, module, err)
		}
	}
	return nil
}
