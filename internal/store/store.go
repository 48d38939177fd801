package store

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// sb builds queries with SQLite's ? placeholders.
var sb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Store is the SQLite data access layer for the yindex, modules and files
// tables.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// The yindex and modules column lists match the emitted preamble so that
// emitted insert statements run unchanged.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS yindex (
  module          TEXT,
  revision        TEXT,
  path            TEXT,
  statement       TEXT,
  argument        TEXT,
  description     TEXT,
  properties      TEXT
);

CREATE TABLE IF NOT EXISTS modules (
  module          TEXT,
  revision        TEXT,
  yang_version    TEXT,
  belongs_to      TEXT,
  namespace       TEXT,
  prefix          TEXT,
  organization    TEXT,
  maturity        TEXT,
  compile_status  TEXT,
  document        TEXT,
  file_path       TEXT
);

CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  hash            TEXT,
  module          TEXT,
  revision        TEXT,
  last_indexed    TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_yindex_module ON yindex(module, revision);
CREATE INDEX IF NOT EXISTS idx_yindex_path ON yindex(path);
CREATE INDEX IF NOT EXISTS idx_yindex_argument ON yindex(argument);
CREATE INDEX IF NOT EXISTS idx_yindex_statement ON yindex(statement);
CREATE INDEX IF NOT EXISTS idx_modules_module ON modules(module, revision);
CREATE INDEX IF NOT EXISTS idx_files_module ON files(module, revision);
`

// DeleteModuleData transactionally removes the node and module rows of one
// module revision.
func (s *Store) DeleteModuleData(module, revision string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteModuleTx(tx, module, revision); err != nil {
		return err
	}
	return tx.Commit()
}
