package cmd

import (
	"github.com/spf13/cobra"
)

// options holds flags read directly by commands. Flags that map to config
// keys (--format, --precise, --cache, ...) are registered too but read back
// through config.Load so file, env and flag layering stays in one place.
type options struct {
	path       string
	configFile string
	verbose    bool
	noPrecise  bool
	clearCache bool
	context    bool

	tag      string
	author   string
	file     string
	priority string
	hasIssue bool
}

// NewRootCmd builds the command tree. Scanning is the default action.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "todos [path]",
		Short: "todos: fast cross-language TODO scanner",
		Long: "Finds TODO, FIXME, HACK, BUG and XXX annotations in code comments.\n" +
			"Candidates are verified against a tree-sitter syntax tree and cached per file.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args)
		},
	}

	root.Flags().BoolVar(&opts.context, "context", false, "Show the source line under each item")

	pf := root.PersistentFlags()
	pf.StringVar(&opts.path, "path", ".", "Path to scan (a positional path takes precedence)")
	pf.StringVar(&opts.configFile, "config", "", "Config file (default: search for .todo-tracker.toml)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log cache and verifier diagnostics to stderr")
	pf.BoolVar(&opts.noPrecise, "no-precise", false, "Skip tree-sitter verification")
	pf.BoolVar(&opts.clearCache, "clear-cache", false, "Clear the scan cache before running")

	pf.StringVar(&opts.tag, "tag", "", "Filter by tag (comma-separated: TODO,FIXME,HACK)")
	pf.StringVar(&opts.author, "author", "", "Filter by author (comma-separated)")
	pf.StringVar(&opts.file, "file", "", "Filter by file glob pattern")
	pf.StringVar(&opts.priority, "priority", "", "Filter by priority (low, medium, high, critical)")
	pf.BoolVar(&opts.hasIssue, "has-issue", false, "Only show items with issue references")

	// Config-backed flags.
	pf.String("format", "text", "Output format: text, json, count")
	pf.String("color", "auto", "Color output: auto, always, never")
	pf.Bool("precise", true, "Verify candidates with tree-sitter")
	pf.Bool("cache", true, "Use the incremental scan cache")
	pf.String("cache-dir", "", "Shared cache directory (default: <project>/.todo-tracker)")
	pf.Int("workers", 0, "Parallel workers for uncached scans (0 = all CPUs)")
	pf.Int64("max-file-size", 1<<20, "Skip files larger than this many bytes")
	pf.StringSlice("exclude", nil, "Glob patterns to skip (e.g. vendor/**,*.min.js)")

	root.AddCommand(newScanCmd(opts, "scan"))
	root.AddCommand(newScanCmd(opts, "list"))
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newCacheCmd(opts))
	root.AddCommand(newLanguagesCmd(opts))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
