package index

import (
	"bufio"
	"fmt"
	"io"
)

// Sink receives the output of an Indexer in emission order.
type Sink interface {
	CreateTables() error
	InsertModule(row *ModuleRow) error
	InsertNode(row *IndexRow) error
}

// SQLWriter renders rows as SQL text, one statement per line.
type SQLWriter struct {
	w *bufio.Writer
}

// Compile-time check: *SQLWriter satisfies Sink.
var _ Sink = (*SQLWriter)(nil)

// NewSQLWriter returns a SQLWriter on w. Call Flush when done.
func NewSQLWriter(w io.Writer) *SQLWriter {
	return &SQLWriter{w: bufio.NewWriter(w)}
}

func (s *SQLWriter) line(stmt string) error {
	if _, err := s.w.WriteString(stmt); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *SQLWriter) CreateTables() error {
	if err := s.line(CreateIndexTable); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	if err := s.line(CreateModulesTable); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	return nil
}

func (s *SQLWriter) InsertModule(row *ModuleRow) error {
	if err := s.line(row.SQL()); err != nil {
		return fmt.Errorf("write module %s: %w", row.Module, err)
	}
	return nil
}

func (s *SQLWriter) InsertNode(row *IndexRow) error {
	if err := s.line(row.SQL()); err != nil {
		return fmt.Errorf("write node %s: %w", row.Path, err)
	}
	return nil
}

// Flush writes any buffered output.
func (s *SQLWriter) Flush() error {
	return s.w.Flush()
}

// Collector buffers rows in memory in emission order.
type Collector struct {
	SchemaRequested bool
	Modules         []ModuleRow
	Nodes           []IndexRow
}

// Compile-time check: *Collector satisfies Sink.
var _ Sink = (*Collector)(nil)

func (c *Collector) CreateTables() error {
	c.SchemaRequested = true
	return nil
}

func (c *Collector) InsertModule(row *ModuleRow) error {
	c.Modules = append(c.Modules, *row)
	return nil
}

func (c *Collector) InsertNode(row *IndexRow) error {
	c.Nodes = append(c.Nodes, *row)
	return nil
}

// Reset drops all buffered rows.
func (c *Collector) Reset() {
	*c = Collector{}
}
