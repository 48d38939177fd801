package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jward/yindex"
	"github.com/jward/yindex/internal/config"
	"github.com/jward/yindex/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagDB          string
	flagFormat      string
	flagConfig      string
	flagLogLevel    string
	flagSearchPath  []string
	flagModuleTable bool
)

// cfg is the merged configuration: defaults, then the --config file, then
// flags that were set explicitly.
var cfg = config.Default()

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "yindex",
	Short:         "Index YANG schemas into SQL rows",
	Long:          "yindex parses YANG modules, resolves groupings and augments, and writes one row per schema node as SQL text or into a SQLite database for queries.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return setupLogging(cmd.ErrOrStderr())
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", config.DefaultDBPath, "database path, relative paths are resolved against the repository root")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringArrayVarP(&flagSearchPath, "search-path", "p", nil, "directory searched for imported and included modules (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&flagModuleTable, "module-table", false, "write one modules row per processed module")

	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(queryCmd)
}

// loadConfig builds cfg from the optional file and the flags the user set.
func loadConfig(cmd *cobra.Command) error {
	cfg = config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DB = flagDB
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("search-path") {
		cfg.SearchPath = flagSearchPath
	}
	if flags.Changed("module-table") {
		cfg.MakeModuleTable = flagModuleTable
	}
	return cfg.Validate()
}

func setupLogging(w io.Writer) error {
	logger, err := logging.New(w, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logging.SetGlobalLogger(logger)
	return nil
}

// --- emit ---

var (
	flagNoSchema   bool
	flagSchemaOnly bool
	flagOutput     string
)

var emitCmd = &cobra.Command{
	Use:   "emit [file...]",
	Short: "Write the SQL text index of YANG modules",
	Long:  "Loads the given YANG files, resolves them and writes create table statements followed by one insert per schema node to stdout or --output.",
	RunE:  runEmit,
}

func init() {
	emitCmd.Flags().BoolVar(&flagNoSchema, "no-schema", false, "omit the create table statements")
	emitCmd.Flags().BoolVar(&flagSchemaOnly, "schema-only", false, "write only the create table statements")
	emitCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write to this file instead of stdout")
}

func runEmit(cmd *cobra.Command, args []string) error {
	start := time.Now()

	w := cmd.OutOrStdout()
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", flagOutput, err)
		}
		defer f.Close()
		w = f
	}

	stats, err := yindex.Emit(cmd.Context(), w, args,
		yindex.WithSearchPath(cfg.SearchPath...),
		yindex.WithModuleTable(cfg.MakeModuleTable),
		yindex.WithNoSchema(flagNoSchema),
		yindex.WithSchemaOnly(flagSchemaOnly),
	)
	if stats != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Emitted %s rows from %s modules in %s\n",
			humanize.Comma(int64(stats.Nodes)), humanize.Comma(int64(stats.Modules)),
			time.Since(start).Round(time.Millisecond))
	}
	return err
}

// --- index ---

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index [path...]",
	Short: "Index YANG files or directories into the database",
	Long:  "Indexes every .yang file under each directory argument, and each file argument, into the SQLite database. Unchanged files are skipped.",
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "re-index files even when their content is unchanged")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	if len(args) == 0 {
		args = []string{"."}
	}

	var dirs, files []string
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("resolving path %q: %w", arg, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("path not found: %s", abs)
		}
		if info.IsDir() {
			dirs = append(dirs, abs)
		} else {
			files = append(files, abs)
		}
	}

	var anchor string
	if len(dirs) > 0 {
		anchor = dirs[0]
	} else {
		anchor = filepath.Dir(files[0])
	}
	dbPath := resolveDBPath(findRepoRoot(anchor))
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	engine, err := yindex.New(dbPath,
		yindex.WithSearchPath(cfg.SearchPath...),
		yindex.WithForce(flagForce),
	)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	ctx := cmd.Context()
	total := &yindex.IndexStats{}
	var firstErr error
	record := func(stats *yindex.IndexStats, err error) {
		if stats != nil {
			addStats(total, stats)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, dir := range dirs {
		record(engine.IndexDirectory(ctx, dir))
	}
	if len(files) > 0 {
		record(engine.IndexFiles(ctx, files))
	}

	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "Indexed %s of %s files (%s unchanged, %s failed, %s removed) in %s\n",
		humanize.Comma(int64(total.Indexed)), humanize.Comma(int64(total.Files)),
		humanize.Comma(int64(total.Skipped)), humanize.Comma(int64(total.Failed)),
		humanize.Comma(int64(total.Removed)), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(w, "Wrote %s rows for %s modules\n",
		humanize.Comma(int64(total.Nodes)), humanize.Comma(int64(total.Modules)))
	fmt.Fprintf(w, "Database: %s\n", dbPath)

	if firstErr != nil {
		return fmt.Errorf("indexing: %w", firstErr)
	}
	return nil
}

func addStats(total, s *yindex.IndexStats) {
	total.Files += s.Files
	total.Indexed += s.Indexed
	total.Skipped += s.Skipped
	total.Failed += s.Failed
	total.Removed += s.Removed
	total.Modules += s.Modules
	total.Nodes += s.Nodes
}

// --- load ---

var loadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load an emitted SQL script into the database",
	Long:  "Executes a script written by 'yindex emit' against the database in one transaction. Reads stdin when no file or '-' is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	start := time.Now()

	r := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))
	engine, err := yindex.New(dbPath)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	stats, err := engine.Load(r)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Loaded %s rows and %s module rows in %s\n",
		humanize.Comma(int64(stats.Nodes)), humanize.Comma(int64(stats.Modules)),
		time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(cmd.ErrOrStderr(), "Database: %s\n", dbPath)
	return nil
}

// --- paths ---

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the configured database path, resolving a relative
// path against repoRoot.
func resolveDBPath(repoRoot string) string {
	if filepath.IsAbs(cfg.DB) {
		return cfg.DB
	}
	return filepath.Join(repoRoot, cfg.DB)
}
