package yindex

import (
	"github.com/jward/yindex/internal/index"
	"github.com/jward/yindex/internal/store"
)

// Public type aliases for internal types used in the Engine and QueryBuilder
// API. External consumers use these names; no conversion is needed.

type Store = store.Store
type File = store.File
type Node = store.Node
type ModuleInfo = store.ModuleInfo
type NodeFilter = store.NodeFilter
type Summary = store.Summary
type LoadStats = store.LoadStats
type Stats = index.Stats

// IndexStats counts what an Engine indexing run did.
type IndexStats struct {
	Files   int // files considered
	Indexed int // changed files that were re-indexed
	Skipped int // unchanged files
	Failed  int // files that could not be read or parsed
	Removed int // tracked files that disappeared from the indexed directory
	Modules int // module revisions written, submodules included
	Nodes   int // yindex rows written
}
