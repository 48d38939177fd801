package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jward/yindex"
	"github.com/spf13/cobra"
)

var (
	flagLimit  int
	flagOffset int

	flagModule     string
	flagRevision   string
	flagStatements []string
	flagPath       string
	flagArgument   string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the schema index",
	Long:  "Run queries against a database written by 'yindex index' or 'yindex load'.",
}

func init() {
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")

	nodesCmd.Flags().StringVar(&flagModule, "module", "", "only nodes of this module")
	nodesCmd.Flags().StringVar(&flagRevision, "revision", "", "only nodes of this revision")
	nodesCmd.Flags().StringSliceVar(&flagStatements, "statement", nil, "only these statement keywords (comma-separated or repeated)")
	nodesCmd.Flags().StringVar(&flagPath, "path", "", "only this schema path and the nodes below it")
	nodesCmd.Flags().StringVar(&flagArgument, "argument", "", "only nodes with this exact argument")
	nodeCmd.Flags().StringVar(&flagRevision, "revision", "", "module revision (default: newest)")

	queryCmd.AddCommand(modulesCmd)
	queryCmd.AddCommand(moduleCmd)
	queryCmd.AddCommand(nodesCmd)
	queryCmd.AddCommand(nodeCmd)
	queryCmd.AddCommand(searchCmd)
	queryCmd.AddCommand(summaryCmd)
}

// --- Helpers ---

// openEngine opens the database from the --db flag path (or default).
func openEngine() (*yindex.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'yindex index' first)", dbPath)
	}
	return yindex.New(dbPath)
}

// outputResult marshals a CLIResult to w in the selected format.
func outputResult(w io.Writer, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(cmd *cobra.Command, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() yindex.Pagination {
	return yindex.Pagination{
		Limit:  flagLimit,
		Offset: flagOffset,
	}
}

func moduleToCLI(m *yindex.ModuleInfo) CLIModule {
	return CLIModule{
		Module:       m.Module,
		Revision:     m.Revision,
		YangVersion:  m.YangVersion,
		BelongsTo:    m.BelongsTo,
		Namespace:    m.Namespace,
		Prefix:       m.Prefix,
		Organization: m.Organization,
		NodeCount:    m.NodeCount,
	}
}

func nodeToCLI(n *yindex.Node) CLINode {
	return CLINode{
		Module:      n.Module,
		Revision:    n.Revision,
		Path:        n.Path,
		Statement:   n.Statement,
		Argument:    n.Argument,
		Description: n.Description,
	}
}

func nodesToCLI(nodes []*yindex.Node) []CLINode {
	out := make([]CLINode, len(nodes))
	for i, n := range nodes {
		out[i] = nodeToCLI(n)
	}
	return out
}

func propertiesToCLI(props []yindex.Property) []CLIProperty {
	if len(props) == 0 {
		return nil
	}
	out := make([]CLIProperty, len(props))
	for i, p := range props {
		out[i] = CLIProperty{
			Keyword:     p.Keyword,
			Value:       p.Value,
			HasChildren: p.HasChildren,
			Children:    propertiesToCLI(p.Children),
		}
	}
	return out
}

// --- Commands ---

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List indexed module revisions",
	Args:  cobra.NoArgs,
	RunE:  runModules,
}

func runModules(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return outputError(cmd, "modules", err)
	}
	defer e.Close()

	mods, err := e.Query().Modules()
	if err != nil {
		return outputError(cmd, "modules", err)
	}
	results := make([]CLIModule, len(mods))
	for i, m := range mods {
		results[i] = moduleToCLI(m)
	}
	total := len(results)
	return outputResult(cmd.OutOrStdout(), CLIResult{Command: "modules", Results: results, TotalCount: &total})
}

var moduleCmd = &cobra.Command{
	Use:   "module <name> [revision]",
	Short: "Show one module revision (default: newest)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runModule,
}

func runModule(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return outputError(cmd, "module", err)
	}
	defer e.Close()

	var revision string
	if len(args) == 2 {
		revision = args[1]
	}
	m, err := e.Query().Module(args[0], revision)
	if err != nil {
		return outputError(cmd, "module", err)
	}
	return outputResult(cmd.OutOrStdout(), CLIResult{Command: "module", Results: moduleToCLI(m)})
}

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List schema nodes, optionally filtered",
	Args:  cobra.NoArgs,
	RunE:  runNodes,
}

func runNodes(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return outputError(cmd, "nodes", err)
	}
	defer e.Close()

	filter := yindex.NodeFilter{
		Module:     flagModule,
		Revision:   flagRevision,
		Statements: flagStatements,
		PathPrefix: flagPath,
		Argument:   flagArgument,
	}
	res, err := e.Query().Nodes(filter, buildPagination())
	if err != nil {
		return outputError(cmd, "nodes", err)
	}
	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command:    "nodes",
		Results:    nodesToCLI(res.Items),
		TotalCount: &res.TotalCount,
	})
}

var nodeCmd = &cobra.Command{
	Use:   "node <path>",
	Short: "Show the node at a schema path with its properties",
	Args:  cobra.ExactArgs(1),
	RunE:  runNode,
}

func runNode(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return outputError(cmd, "node", err)
	}
	defer e.Close()

	q := e.Query()
	n, err := q.NodeAt(args[0], flagRevision)
	if errors.Is(err, yindex.ErrNotFound) {
		// No match is an empty result, not a failure.
		return outputResult(cmd.OutOrStdout(), CLIResult{Command: "node", Results: nil})
	}
	if err != nil {
		return outputError(cmd, "node", err)
	}
	props, err := q.Properties(n)
	if err != nil {
		return outputError(cmd, "node", err)
	}
	result := nodeToCLI(n)
	result.Properties = propertiesToCLI(props)
	return outputResult(cmd.OutOrStdout(), CLIResult{Command: "node", Results: result})
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Find nodes whose argument or description contains a term",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return outputError(cmd, "search", err)
	}
	defer e.Close()

	res, err := e.Query().Search(args[0], buildPagination())
	if err != nil {
		return outputError(cmd, "search", err)
	}
	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command:    "search",
		Results:    nodesToCLI(res.Items),
		TotalCount: &res.TotalCount,
	})
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count modules, nodes and statements",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return outputError(cmd, "summary", err)
	}
	defer e.Close()

	sum, err := e.Query().Summary()
	if err != nil {
		return outputError(cmd, "summary", err)
	}
	return outputResult(cmd.OutOrStdout(), CLIResult{Command: "summary", Results: CLISummary{
		Modules:    sum.Modules,
		Nodes:      sum.Nodes,
		Files:      sum.Files,
		Statements: sum.Statements,
	}})
}
