// Package index turns resolved YANG modules into yindex and modules rows.
//
// An Indexer walks each module of an expanded module set and hands one
// IndexRow per named schema node, plus an optional ModuleRow per module, to
// a Sink. Traversal is sequential and deterministic: rows come out in module
// order, then typedefs, features, identities, groupings and extensions, then
// augments into modules outside the set, then the data tree depth-first.
package index

import (
	"context"
	"fmt"

	"github.com/jward/yindex/internal/logging"
	"github.com/jward/yindex/internal/schema"
)

// Options selects what Emit writes.
type Options struct {
	// NoSchema omits the create table preamble.
	NoSchema bool
	// SchemaOnly writes the preamble and no rows.
	SchemaOnly bool
	// MakeModuleTable writes one modules row per processed module.
	MakeModuleTable bool
}

// Stats counts what an Emit call wrote.
type Stats struct {
	Modules     int
	ModuleRows  int
	Nodes       int
	SkippedArgs int
}

// Indexer emits rows for modules resolved by a registry.
type Indexer struct {
	sink     Sink
	registry schema.Registry
	opts     Options
	stats    Stats
}

// New returns an Indexer writing to sink. registry resolves includes and
// belongs-to references and may be nil when modules are self-contained.
func New(sink Sink, registry schema.Registry, opts Options) *Indexer {
	return &Indexer{sink: sink, registry: registry, opts: opts}
}

// Expand returns modules followed by every submodule reachable through
// include statements, without duplicates.
func (ix *Indexer) Expand(modules []*schema.Module) []*schema.Module {
	seen := make(map[string]bool, len(modules))
	var out []*schema.Module
	add := func(m *schema.Module) {
		if m == nil || seen[m.Key()] {
			return
		}
		seen[m.Key()] = true
		out = append(out, m)
	}
	for _, m := range modules {
		add(m)
	}
	// out grows while it is walked so nested includes are followed too.
	for i := 0; i < len(out); i++ {
		m := out[i]
		for _, inc := range m.Search("include") {
			add(ix.resolveInclude(m, inc))
		}
	}
	return out
}

func (ix *Indexer) resolveInclude(m *schema.Module, inc *schema.Statement) *schema.Module {
	if ix.registry == nil {
		return nil
	}
	name := inc.Argument()
	if sub := ix.registry.Module(name, ""); sub != nil {
		return sub
	}
	sub := ix.registry.Search(inc.Pos, name, m.Revision())
	if sub == nil {
		logging.Warn().Str("module", m.Name).Str("include", name).Stringer("pos", inc.Pos).
			Msg("included submodule not found")
	}
	return sub
}

// Emit writes the preamble and the rows of every module in the expanded set.
// Cancellation is checked between modules.
func (ix *Indexer) Emit(ctx context.Context, modules []*schema.Module) (Stats, error) {
	ix.stats = Stats{}

	if !ix.opts.NoSchema {
		if err := ix.sink.CreateTables(); err != nil {
			return ix.stats, err
		}
	}
	if ix.opts.SchemaOnly {
		return ix.stats, nil
	}

	set := ix.Expand(modules)
	inSet := make(map[string]bool, len(set))
	for _, m := range set {
		inSet[m.Key()] = true
	}

	for _, m := range set {
		if err := ctx.Err(); err != nil {
			return ix.stats, err
		}
		before := ix.stats.Nodes
		if err := ix.emitModule(m, inSet); err != nil {
			return ix.stats, fmt.Errorf("index module %s: %w", m.Key(), err)
		}
		ix.stats.Modules++
		logging.Ctx(ctx).Debug().Str("module", m.Key()).Int("rows", ix.stats.Nodes-before).
			Msg("indexed module")
	}
	return ix.stats, nil
}

func (ix *Indexer) emitModule(m *schema.Module, inSet map[string]bool) error {
	if ix.opts.MakeModuleTable {
		if err := ix.sink.InsertModule(BuildModuleRow(m, ix.registry)); err != nil {
			return err
		}
		ix.stats.ModuleRows++
	}

	for _, group := range [][]*schema.Statement{m.Typedefs, m.Features, m.Identities, m.Groupings, m.Extensions} {
		for _, s := range group {
			if err := ix.indexNode(s); err != nil {
				return err
			}
		}
	}

	for _, aug := range m.Search("augment") {
		if aug.Target == nil || aug.Target.Module == nil || inSet[aug.Target.Module.Key()] {
			continue
		}
		for _, child := range aug.Children {
			if err := ix.visit(child); err != nil {
				return err
			}
		}
	}

	for _, child := range m.Children {
		if err := ix.visit(child); err != nil {
			return err
		}
	}
	return nil
}

// visit indexes s and then its resolved children depth-first.
func (ix *Indexer) visit(s *schema.Statement) error {
	if err := ix.indexNode(s); err != nil {
		return err
	}
	for _, child := range s.Children {
		if err := ix.visit(child); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Indexer) indexNode(s *schema.Statement) error {
	row, ok, err := BuildIndexRow(s)
	if err != nil {
		return err
	}
	if !ok {
		ix.stats.SkippedArgs++
		return nil
	}
	if err := ix.sink.InsertNode(row); err != nil {
		return err
	}
	ix.stats.Nodes++
	return nil
}
