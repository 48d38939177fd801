package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// maxStatementSize bounds a single statement read by Load.
const maxStatementSize = 64 << 20

// Load executes a previously emitted SQL script in one transaction. The
// create table preamble is skipped because Migrate owns the table
// definitions; every other statement runs as written.
func (s *Store) Load(r io.Reader) (*LoadStats, error) {
	if err := s.Migrate(); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("load: begin: %w", err)
	}
	defer tx.Rollback()

	stats := &LoadStats{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStatementSize)
	scanner.Split(scanStatements)
	for scanner.Scan() {
		stmt := strings.TrimSpace(scanner.Text())
		if stmt == "" || stmt == ";" {
			continue
		}
		lower := strings.ToLower(stmt)
		switch {
		case strings.HasPrefix(lower, "create table"):
			stats.Tables++
			continue
		case strings.HasPrefix(lower, "insert into yindex"):
			stats.Nodes++
		case strings.HasPrefix(lower, "insert into modules"):
			stats.Modules++
		default:
			stats.Other++
		}
		if _, err := tx.Exec(stmt); err != nil {
			return nil, fmt.Errorf("load: statement %d: %w", stats.Nodes+stats.Modules+stats.Other, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("load: read: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("load: commit: %w", err)
	}
	return stats, nil
}

// scanStatements is a bufio.SplitFunc yielding one SQL statement per token,
// terminated by a semicolon outside single-quoted literals. Doubled quotes
// inside a literal toggle the state twice and so need no special case.
func scanStatements(data []byte, atEOF bool) (advance int, token []byte, err error) {
	inQuote := false
	for i, c := range data {
		switch c {
		case '\'':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return i + 1, data[:i+1], nil
			}
		}
	}
	if atEOF && len(data) > 0 {
		if len(bytes.TrimSpace(data)) == 0 {
			return len(data), nil, nil
		}
		return len(data), data, nil
	}
	return 0, nil, nil
}
