package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// formatModulesText formats CLIModule results as aligned columns.
func formatModulesText(w io.Writer, mods []CLIModule) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tREVISION\tPREFIX\tNAMESPACE\tNODES")
	for _, m := range mods {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			m.Module, m.Revision, m.Prefix, m.Namespace, humanize.Comma(int64(m.NodeCount)))
	}
	tw.Flush()
}

// formatNodesText formats CLINode results as aligned columns.
func formatNodesText(w io.Writer, nodes []CLINode) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tSTATEMENT\tMODULE\tREVISION")
	for _, n := range nodes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.Path, n.Statement, n.Module, n.Revision)
	}
	tw.Flush()
}

// formatNodeText formats a single node with its properties as an indented
// tree.
func formatNodeText(w io.Writer, n CLINode) {
	fmt.Fprintf(w, "%s %s\n", n.Statement, n.Argument)
	fmt.Fprintf(w, "Path: %s\n", n.Path)
	rev := n.Revision
	if rev == "" {
		rev = "(none)"
	}
	fmt.Fprintf(w, "Module: %s@%s\n", n.Module, rev)
	if n.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", n.Description)
	}
	if len(n.Properties) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Properties:")
		formatPropertiesText(w, n.Properties, 1)
	}
}

func formatPropertiesText(w io.Writer, props []CLIProperty, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, p := range props {
		if p.Value == "" {
			fmt.Fprintf(w, "%s%s\n", indent, p.Keyword)
		} else {
			fmt.Fprintf(w, "%s%s %s\n", indent, p.Keyword, p.Value)
		}
		formatPropertiesText(w, p.Children, depth+1)
	}
}

// formatSummaryText formats CLISummary as readable text.
func formatSummaryText(w io.Writer, sum CLISummary) {
	fmt.Fprintln(w, "Index Summary")
	fmt.Fprintln(w, "=============")
	fmt.Fprintf(w, "Modules: %s\n", humanize.Comma(int64(sum.Modules)))
	fmt.Fprintf(w, "Nodes: %s\n", humanize.Comma(int64(sum.Nodes)))
	fmt.Fprintf(w, "Files: %s\n", humanize.Comma(int64(sum.Files)))

	if len(sum.Statements) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Statements:")
		stmts := make([]string, 0, len(sum.Statements))
		for stmt := range sum.Statements {
			stmts = append(stmts, stmt)
		}
		sort.Strings(stmts)
		for _, stmt := range stmts {
			fmt.Fprintf(w, "  %s: %s\n", stmt, humanize.Comma(int64(sum.Statements[stmt])))
		}
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIModule:
		formatModulesText(w, v)
	case CLIModule:
		formatModulesText(w, []CLIModule{v})
	case []CLINode:
		formatNodesText(w, v)
	case CLINode:
		formatNodeText(w, v)
	case CLISummary:
		formatSummaryText(w, v)
	case nil:
		// No output for nil results (e.g., node with no match).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %s of %s results\n", humanize.Comma(int64(shown)), humanize.Comma(int64(count)))
		}
	}

	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIModule:
		return len(r)
	case []CLINode:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
