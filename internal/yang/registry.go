// Package yang loads YANG files into resolved schema trees.
//
// A Registry parses files, keeps every loaded module keyed by name and
// revision, and resolves each module family (a module plus its included
// submodules) on first use: definitions are collected, uses statements are
// expanded from groupings, and augment children are attached to their
// targets. The result is the read-only model the indexer walks.
package yang

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/jward/yindex/internal/logging"
	"github.com/jward/yindex/internal/schema"
)

// ErrNotModule is returned for files whose top-level statement is not a
// module or submodule.
var ErrNotModule = errors.New("not a YANG module or submodule")

// ModPathEnv lists extra search directories, separated like PATH.
const ModPathEnv = "YANG_MODPATH"

// Registry holds loaded modules. It is not safe for concurrent use.
type Registry struct {
	searchPath []string
	workers    int
	known      map[string][]string // module name to files holding it

	byName map[string][]*schema.Module // newest revision first
	files  map[string]*schema.Module   // by absolute path

	state     map[*schema.Module]resolveState
	families  map[*schema.Module][]*schema.Module
	lexParent map[*schema.Statement]*schema.Statement
}

// Option configures a Registry.
type Option func(*Registry)

// WithSearchPath adds directories searched for imported, included and
// belongs-to modules that were not loaded explicitly.
func WithSearchPath(dirs ...string) Option {
	return func(r *Registry) {
		r.searchPath = append(r.searchPath, dirs...)
	}
}

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithModuleFiles records files already known to hold the named modules.
// They are tried before the search path when such a module is referenced,
// wherever the files live.
func WithModuleFiles(files map[string][]string) Option {
	return func(r *Registry) {
		if r.known == nil {
			r.known = make(map[string][]string, len(files))
		}
		for name, paths := range files {
			r.known[name] = append(r.known[name], paths...)
		}
	}
}

// NewRegistry returns an empty Registry. Directories from YANG_MODPATH are
// searched after the configured search path.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		workers:   runtime.NumCPU(),
		byName:    make(map[string][]*schema.Module),
		files:     make(map[string]*schema.Module),
		state:     make(map[*schema.Module]resolveState),
		families:  make(map[*schema.Module][]*schema.Module),
		lexParent: make(map[*schema.Statement]*schema.Statement),
	}
	for _, opt := range opts {
		opt(r)
	}
	if env := os.Getenv(ModPathEnv); env != "" {
		for _, dir := range filepath.SplitList(env) {
			if dir != "" {
				r.searchPath = append(r.searchPath, dir)
			}
		}
	}
	return r
}

// SearchPath returns the directories searched for referenced modules.
func (r *Registry) SearchPath() []string {
	return slices.Clone(r.searchPath)
}

// ParseFile reads and parses one YANG file into an unresolved module.
func ParseFile(path string) (*schema.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseModule(src, path)
}

// ParseModule parses source text holding exactly one module or submodule.
func ParseModule(src []byte, file string) (*schema.Module, error) {
	stmts, err := Parse(src, file)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, fmt.Errorf("%s: expected one top-level statement, found %d: %w", file, len(stmts), ErrNotModule)
	}
	top := stmts[0]
	if !top.Keyword.Is("module") && !top.Keyword.Is("submodule") {
		return nil, fmt.Errorf("%s: top-level statement is %s: %w", file, top.Keyword, ErrNotModule)
	}
	if top.Argument() == "" {
		return nil, fmt.Errorf("%s: %s without a name: %w", file, top.Keyword, ErrNotModule)
	}
	return schema.NewModule(top, file), nil
}

// LoadFiles parses paths concurrently, then registers and resolves the
// modules in input order. Files that fail to parse are reported in the
// returned error; the modules that loaded are still returned.
func (r *Registry) LoadFiles(ctx context.Context, paths []string) ([]*schema.Module, error) {
	type result struct {
		mod *schema.Module
		err error
	}
	results := make([]result, len(paths))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				results[i] = result{err: ctx.Err()}
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()
			mod, err := ParseFile(path)
			results[i] = result{mod: mod, err: err}
		}(i, path)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		mods []*schema.Module
		errs []error
	)
	for i, res := range results {
		if res.err != nil {
			logging.Ctx(ctx).Warn().Err(res.err).Str("file", paths[i]).Msg("failed to load module")
			errs = append(errs, res.err)
			continue
		}
		mods = append(mods, r.register(res.mod))
	}
	for _, m := range mods {
		r.resolve(m)
	}
	logging.Ctx(ctx).Debug().Int("files", len(paths)).Int("modules", len(mods)).Msg("loaded modules")
	return mods, errors.Join(errs...)
}

// LoadDirectory loads every .yang file under root, skipping hidden
// directories.
func (r *Registry) LoadDirectory(ctx context.Context, root string) ([]*schema.Module, error) {
	paths, err := ListFiles(root)
	if err != nil {
		return nil, err
	}
	return r.LoadFiles(ctx, paths)
}

// ListFiles returns the .yang files under root in lexical order.
func ListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".yang") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// register adds m unless a module with the same name and revision is already
// known, in which case the known module is returned.
func (r *Registry) register(m *schema.Module) *schema.Module {
	known := m
	if existing := r.lookup(m.Name, m.Revision()); existing != nil && existing.Revision() == m.Revision() {
		known = existing
	}
	if m.File != "" {
		if abs, err := filepath.Abs(m.File); err == nil {
			r.files[abs] = known
		}
	}
	if known != m {
		logging.Debug().Str("module", m.Key()).Str("file", m.File).Msg("module already loaded")
		return known
	}
	list := append(r.byName[m.Name], m)
	// Revisions are dates, so string order is chronological.
	slices.SortStableFunc(list, func(a, b *schema.Module) int {
		return strings.Compare(b.Revision(), a.Revision())
	})
	r.byName[m.Name] = list
	return m
}

// Modules returns every registered module ordered by name, newest revision
// first.
func (r *Registry) Modules() []*schema.Module {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	var out []*schema.Module
	for _, name := range names {
		out = append(out, r.byName[name]...)
	}
	return out
}

// lookup finds a registered module without loading or resolving anything.
func (r *Registry) lookup(name, revision string) *schema.Module {
	list := r.byName[name]
	if len(list) == 0 {
		return nil
	}
	if revision == "" {
		return list[0]
	}
	for _, m := range list {
		if m.Revision() == revision {
			return m
		}
	}
	return nil
}

// Module returns the resolved module with the given name and revision; an
// empty revision selects the newest. Only registered modules are considered.
func (r *Registry) Module(name, revision string) *schema.Module {
	m := r.lookup(name, revision)
	if m != nil {
		r.resolve(m)
	}
	return m
}

// Search finds a module that may not be loaded yet. The directory of the
// file containing pos is tried first, then the search path. When the exact
// revision is unavailable the newest revision found is returned.
func (r *Registry) Search(pos schema.Position, name, revision string) *schema.Module {
	m := r.find(pos, name, revision)
	if m != nil {
		r.resolve(m)
	}
	return m
}

func (r *Registry) find(pos schema.Position, name, revision string) *schema.Module {
	if m := r.lookup(name, revision); m != nil {
		return m
	}

	for _, path := range r.known[name] {
		r.loadCandidate(path, name)
	}
	if m := r.lookup(name, revision); m != nil {
		return m
	}

	var dirs []string
	if pos.File != "" {
		dirs = append(dirs, filepath.Dir(pos.File))
	}
	dirs = append(dirs, r.searchPath...)

	for _, dir := range dirs {
		var candidates []string
		if revision != "" {
			candidates = append(candidates, filepath.Join(dir, name+"@"+revision+".yang"))
		}
		candidates = append(candidates, filepath.Join(dir, name+".yang"))
		if matches, err := filepath.Glob(filepath.Join(dir, name+"@*.yang")); err == nil {
			candidates = append(candidates, matches...)
		}
		for _, path := range candidates {
			r.loadCandidate(path, name)
		}
		if m := r.lookup(name, revision); m != nil {
			return m
		}
	}

	if m := r.lookup(name, ""); m != nil {
		logging.Debug().Str("module", name).Str("revision", revision).Str("found", m.Revision()).
			Stringer("pos", pos).Msg("requested revision not found, using newest")
		return m
	}
	logging.Warn().Str("module", name).Str("revision", revision).Stringer("pos", pos).Msg("module not found")
	return nil
}

func (r *Registry) loadCandidate(path, name string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	if _, seen := r.files[abs]; seen {
		return
	}
	if _, err := os.Stat(abs); err != nil {
		return
	}
	m, err := ParseFile(abs)
	if err != nil {
		logging.Warn().Err(err).Str("file", abs).Msg("failed to load module from search path")
		r.files[abs] = nil
		return
	}
	if m.Name != name {
		logging.Debug().Str("file", abs).Str("want", name).Str("got", m.Name).Msg("file holds a different module")
	}
	r.register(m)
}

// ModuleForFile returns the module loaded from path, or nil when the file
// was not loaded or failed to parse. A file holding an already known module
// revision maps to that module.
func (r *Registry) ModuleForFile(path string) *schema.Module {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	return r.files[abs]
}
