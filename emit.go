package yindex

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jward/yindex/internal/index"
	"github.com/jward/yindex/internal/logging"
	"github.com/jward/yindex/internal/schema"
	"github.com/jward/yindex/internal/yang"
)

// ErrNoModules is returned when there is nothing to index.
var ErrNoModules = errors.New("no modules to index")

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("not found")

type options struct {
	searchPath  []string
	workers     int
	moduleTable bool
	force       bool
	noSchema    bool
	schemaOnly  bool
}

// Option configures Emit and Engine.
type Option func(*options)

// WithSearchPath adds directories searched for imported, included and
// belongs-to modules that are not among the indexed files.
func WithSearchPath(dirs ...string) Option {
	return func(o *options) {
		o.searchPath = append(o.searchPath, dirs...)
	}
}

// WithWorkers bounds how many files are parsed concurrently. Zero keeps the
// default of one per CPU.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithModuleTable controls whether a modules row is written per processed
// module. An Engine always writes them.
func WithModuleTable(enabled bool) Option {
	return func(o *options) {
		o.moduleTable = enabled
	}
}

// WithForce makes an Engine re-index files whose content hash is unchanged.
func WithForce(force bool) Option {
	return func(o *options) {
		o.force = force
	}
}

// WithNoSchema leaves the create table preamble out of Emit output.
func WithNoSchema(noSchema bool) Option {
	return func(o *options) {
		o.noSchema = noSchema
	}
}

// WithSchemaOnly makes Emit write the preamble and nothing else.
func WithSchemaOnly(schemaOnly bool) Option {
	return func(o *options) {
		o.schemaOnly = schemaOnly
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) registry(extra ...yang.Option) *yang.Registry {
	opts := append([]yang.Option{yang.WithSearchPath(o.searchPath...), yang.WithWorkers(o.workers)}, extra...)
	return yang.NewRegistry(opts...)
}

// Emit loads the YANG files at paths, resolves them and writes the SQL text
// form of their index to w: the preamble, then one insert per module and
// schema node. Files that fail to load are reported in the returned error
// after the modules that did load have been written.
func Emit(ctx context.Context, w io.Writer, paths []string, opts ...Option) (*Stats, error) {
	o := newOptions(opts)
	if len(paths) == 0 && !o.schemaOnly {
		return nil, ErrNoModules
	}

	reg := o.registry()
	var (
		mods    []*schema.Module
		loadErr error
	)
	if !o.schemaOnly {
		mods, loadErr = reg.LoadFiles(ctx, paths)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	sink := index.NewSQLWriter(w)
	ix := index.New(sink, reg, index.Options{
		NoSchema:        o.noSchema,
		SchemaOnly:      o.schemaOnly,
		MakeModuleTable: o.moduleTable,
	})
	stats, err := ix.Emit(ctx, mods)
	if err != nil {
		return &stats, fmt.Errorf("emit: %w", err)
	}
	if err := sink.Flush(); err != nil {
		return &stats, fmt.Errorf("emit: flush: %w", err)
	}

	logging.Ctx(ctx).Info().Int("modules", stats.Modules).Int("rows", stats.Nodes).Msg("emitted index")
	if loadErr != nil {
		return &stats, fmt.Errorf("load modules: %w", loadErr)
	}
	return &stats, nil
}
