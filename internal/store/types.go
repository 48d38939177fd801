package store

import "time"

// File is a source file tracked for incremental indexing.
type File struct {
	ID          int64
	Path        string
	Hash        string
	Module      string
	Revision    string
	LastIndexed time.Time
}

// Node is one stored yindex row. Text fields hold the unescaped column
// values; Properties is still the text-escaped JSON document.
type Node struct {
	ID          int64
	Module      string
	Revision    string
	Path        string
	Statement   string
	Argument    string
	Description string
	Properties  string
}

// ModuleInfo is one module revision with its metadata and node count.
// Metadata is empty when the modules table has no row for the revision.
type ModuleInfo struct {
	Module       string
	Revision     string
	YangVersion  string
	BelongsTo    string
	Namespace    string
	Prefix       string
	Organization string
	NodeCount    int
}

// NodeFilter narrows a node query. Zero fields match everything.
type NodeFilter struct {
	Module     string
	Revision   string
	Statements []string
	// PathPrefix matches the path itself and everything below it.
	PathPrefix string
	Argument   string
}

// Summary counts the contents of the database.
type Summary struct {
	Modules    int
	Nodes      int
	Files      int
	Statements map[string]int
}

// LoadStats counts the statements executed by Load.
type LoadStats struct {
	Tables  int
	Modules int
	Nodes   int
	Other   int
}
