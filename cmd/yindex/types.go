package main

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIModule is a JSON-friendly module revision.
type CLIModule struct {
	Module       string `json:"module"`
	Revision     string `json:"revision"`
	YangVersion  string `json:"yang_version,omitempty"`
	BelongsTo    string `json:"belongs_to,omitempty"`
	Namespace    string `json:"namespace,omitempty"`
	Prefix       string `json:"prefix,omitempty"`
	Organization string `json:"organization,omitempty"`
	NodeCount    int    `json:"node_count"`
}

// CLINode is a JSON-friendly yindex row. Properties are only filled in by
// single-node lookups.
type CLINode struct {
	Module      string        `json:"module"`
	Revision    string        `json:"revision"`
	Path        string        `json:"path"`
	Statement   string        `json:"statement"`
	Argument    string        `json:"argument"`
	Description string        `json:"description,omitempty"`
	Properties  []CLIProperty `json:"properties,omitempty"`
}

// CLIProperty is one decoded substatement of a node.
type CLIProperty struct {
	Keyword     string        `json:"keyword"`
	Value       string        `json:"value"`
	HasChildren bool          `json:"has_children"`
	Children    []CLIProperty `json:"children,omitempty"`
}

// CLISummary is a JSON-friendly database summary.
type CLISummary struct {
	Modules    int            `json:"modules"`
	Nodes      int            `json:"nodes"`
	Files      int            `json:"files"`
	Statements map[string]int `json:"statements"`
}
