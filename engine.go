package yindex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/yindex/internal/index"
	"github.com/jward/yindex/internal/logging"
	"github.com/jward/yindex/internal/store"
	"github.com/jward/yindex/internal/yang"
)

// Engine maintains a SQLite index of YANG modules: file discovery, change
// detection, loading and resolution, row emission, and query access.
type Engine struct {
	store *store.Store
	opts  options
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("yindex: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("yindex: migrate: %w", err)
	}
	return &Engine{store: s, opts: newOptions(opts)}, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// Load executes a SQL text stream produced by Emit against the database.
func (e *Engine) Load(r io.Reader) (*LoadStats, error) {
	return e.store.Load(r)
}

type pendingFile struct {
	path     string
	hash     string
	existing *store.File
}

// IndexFiles indexes the given YANG files.
//
// For each file:
//  1. Skip it when its content hash matches the last run, unless WithForce
//  2. Load and resolve the changed files together, pulling referenced
//     modules from the search path
//  3. Replace the rows of every emitted module revision in one transaction
//  4. Record the file's hash and module
//
// Errors on individual files are logged and skipped; processing continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) (*IndexStats, error) {
	stats := &IndexStats{}
	var errs []error

	var pending []pendingFile
	for _, path := range paths {
		stats.Files++
		f, skip, err := e.checkFile(path)
		if err != nil {
			stats.Failed++
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
			continue
		}
		if skip {
			stats.Skipped++
			continue
		}
		pending = append(pending, f)
	}
	if len(pending) > 0 {
		if err := e.indexPending(ctx, pending, stats, &errs); err != nil {
			return stats, err
		}
	}

	logging.Ctx(ctx).Info().Int("files", stats.Files).Int("indexed", stats.Indexed).
		Int("skipped", stats.Skipped).Int("rows", stats.Nodes).Msg("indexed files")
	if len(errs) > 0 {
		return stats, fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return stats, nil
}

// checkFile hashes path and reports whether it is unchanged since it was
// last indexed.
func (e *Engine) checkFile(path string) (pendingFile, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return pendingFile{}, false, err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return pendingFile{}, false, fmt.Errorf("read file: %w", err)
	}
	f := pendingFile{path: abs, hash: store.ContentHash(content)}

	f.existing, err = e.store.FileByPath(abs)
	if err != nil {
		return pendingFile{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if f.existing != nil && f.existing.Hash == f.hash && !e.opts.force {
		return f, true, nil
	}
	return f, false, nil
}

// indexPending loads the changed files and commits their rows. Only a
// database failure or cancellation is returned; per-file problems are
// appended to errs.
func (e *Engine) indexPending(ctx context.Context, pending []pendingFile, stats *IndexStats, errs *[]error) error {
	paths := make([]string, len(pending))
	for i, f := range pending {
		paths[i] = f.path
	}

	// Unchanged modules are not reloaded, but the changed ones may import,
	// include or augment them from anywhere in the index.
	known, err := e.moduleFiles()
	if err != nil {
		return err
	}
	reg := e.opts.registry(yang.WithModuleFiles(known))
	mods, loadErr := reg.LoadFiles(ctx, paths)
	if err := ctx.Err(); err != nil {
		return err
	}
	if loadErr != nil {
		if joined, ok := loadErr.(interface{ Unwrap() []error }); ok {
			*errs = append(*errs, joined.Unwrap()...)
		} else {
			*errs = append(*errs, loadErr)
		}
	}

	batch := &index.Collector{}
	ix := index.New(batch, reg, index.Options{NoSchema: true, MakeModuleTable: true})
	if _, err := ix.Emit(ctx, mods); err != nil {
		return fmt.Errorf("emit: %w", err)
	}
	dropForeignRows(batch)
	if err := e.store.ReplaceBatch(batch); err != nil {
		return err
	}
	stats.Modules += len(batch.Modules)
	stats.Nodes += len(batch.Nodes)

	now := time.Now()
	for _, f := range pending {
		m := reg.ModuleForFile(f.path)
		if m == nil {
			stats.Failed++
			continue
		}
		// The file used to hold another module revision whose rows are now stale.
		if old := f.existing; old != nil && old.Module != "" &&
			(old.Module != m.Name || old.Revision != m.Revision()) {
			if err := e.store.DeleteModuleData(old.Module, old.Revision); err != nil {
				return err
			}
		}
		if _, err := e.store.UpsertFile(&store.File{
			Path:        f.path,
			Hash:        f.hash,
			Module:      m.Name,
			Revision:    m.Revision(),
			LastIndexed: now,
		}); err != nil {
			return err
		}
		stats.Indexed++
	}
	return nil
}

// moduleFiles maps each indexed module name to the tracked files holding it.
func (e *Engine) moduleFiles() (map[string][]string, error) {
	files, err := e.store.Files()
	if err != nil {
		return nil, err
	}
	known := make(map[string][]string)
	for _, f := range files {
		if f.Module != "" {
			known[f.Module] = append(known[f.Module], f.Path)
		}
	}
	return known, nil
}

// dropForeignRows removes node rows owned by module revisions that have no
// module row in batch. They come from augments by modules that were loaded
// as dependencies only, and belong to those modules' own runs.
func dropForeignRows(batch *index.Collector) {
	type key struct{ module, revision string }
	owned := make(map[key]bool, len(batch.Modules))
	for _, m := range batch.Modules {
		owned[key{m.Module, m.Revision}] = true
	}
	kept := batch.Nodes[:0]
	for _, n := range batch.Nodes {
		if owned[key{n.Module, n.Revision}] {
			kept = append(kept, n)
		}
	}
	batch.Nodes = kept
}

// IndexDirectory indexes all .yang files under root. If root is inside a git
// repository, uses git ls-files to respect .gitignore; otherwise walks the
// filesystem skipping hidden directories. Tracked files under root that no
// longer exist have their rows removed.
func (e *Engine) IndexDirectory(ctx context.Context, root string) (*IndexStats, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	paths, err := gitListFiles(absRoot)
	if err != nil {
		paths, err = yang.ListFiles(absRoot)
		if err != nil {
			return nil, err
		}
	}
	if len(paths) == 0 {
		logging.Ctx(ctx).Warn().Str("root", absRoot).Msg("no YANG files found")
	}

	stats, indexErr := e.IndexFiles(ctx, paths)
	if errors.Is(indexErr, context.Canceled) || errors.Is(indexErr, context.DeadlineExceeded) {
		return stats, indexErr
	}
	removed, err := e.prune(absRoot, paths)
	stats.Removed = removed
	if err != nil {
		return stats, err
	}
	return stats, indexErr
}

// prune drops tracked files under root that are not in present, together
// with the rows of the module revision they held.
func (e *Engine) prune(root string, present []string) (int, error) {
	keep := make(map[string]bool, len(present))
	for _, p := range present {
		keep[p] = true
	}
	files, err := e.store.Files()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if keep[f.Path] || !strings.HasPrefix(f.Path, root+string(filepath.Separator)) {
			continue
		}
		if f.Module != "" {
			if err := e.store.DeleteModuleData(f.Module, f.Revision); err != nil {
				return removed, err
			}
		}
		if err := e.store.DeleteFile(f.Path); err != nil {
			return removed, err
		}
		logging.Debug().Str("file", f.Path).Str("module", f.Module).Msg("removed vanished file")
		removed++
	}
	return removed, nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) .yang files under root.
func gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasSuffix(line, ".yang") {
			continue
		}
		abs := filepath.Join(root, line)
		// Deleted but still tracked files are listed by --cached.
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		paths = append(paths, abs)
	}
	return paths, nil
}
