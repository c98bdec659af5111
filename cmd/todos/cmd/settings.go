package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/todos/internal/app"
	"github.com/corey/todos/internal/config"
	"github.com/corey/todos/internal/domain/policy"
	"github.com/corey/todos/internal/ports"
)

// scanRoot returns the path to scan: the positional argument if given,
// otherwise --path.
func scanRoot(opts *options, args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	if opts.path == "" {
		return "."
	}
	return opts.path
}

// loadConfig resolves settings for root. --no-precise overrides everything.
func loadConfig(cmd *cobra.Command, opts *options, root string) (config.Config, error) {
	cfg, path, err := config.Load(config.Options{
		File:     opts.configFile,
		StartDir: root,
		Flags:    cmd.Flags(),
	})
	if err != nil {
		return config.Config{}, err
	}
	if opts.noPrecise {
		cfg.Scan.Precise = false
	}
	if opts.verbose && path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "[config] %s\n", path)
	}
	return cfg, nil
}

// openApp builds an App for root. A cache that cannot be opened only warns;
// a lock held by another process gets a diagnosis.
func openApp(cmd *cobra.Command, opts *options, cfg config.Config, root string) (*app.App, error) {
	var progress app.Progress
	if cfg.Output.Format == "text" && isTTY(cmd.ErrOrStderr()) {
		progress = newProgressBar(cmd.ErrOrStderr())
	}

	a, err := app.New(app.Config{
		Root:             root,
		Tags:             cfg.Scan.Tags,
		Precise:          cfg.Scan.Precise,
		Workers:          cfg.Scan.Workers,
		MaxFileSize:      cfg.Scan.MaxFileSize,
		Exclude:          cfg.Scan.Exclude,
		RespectGitignore: cfg.Scan.RespectGitignore,
		CacheEnabled:     cfg.Cache.Enabled,
		CacheDir:         cfg.Cache.Dir,
		GrammarPaths:     cfg.Grammars.Paths,
		Logger:           app.NewLogger(cmd.ErrOrStderr(), opts.verbose),
		Progress:         progress,
	})
	if err != nil {
		return nil, err
	}
	if isDBLockError(a.CacheErr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", diagnoseDBLock(a.Paths.CacheDB))
	}
	if opts.clearCache && a.Cache != nil {
		if err := a.ClearCache(); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// buildFilter turns the filter flags into a policy.Filter.
func buildFilter(opts *options) (policy.Filter, error) {
	f := policy.Filter{
		Tags:    policy.SplitList(opts.tag),
		Authors: policy.SplitList(opts.author),
		File:    opts.file,
	}
	if opts.priority != "" {
		p, ok := ports.ParsePriority(opts.priority)
		if !ok {
			return policy.Filter{}, fmt.Errorf("unknown priority %q (want low, medium, high or critical)", opts.priority)
		}
		f.Priority = p
	}
	if opts.hasIssue {
		yes := true
		f.HasIssue = &yes
	}
	return f, nil
}

// scanFiltered is the shared front half of scan, stats and check: load
// config, scan, apply filters.
func scanFiltered(cmd *cobra.Command, opts *options, args []string) (ports.ScanResult, config.Config, *app.App, error) {
	filter, err := buildFilter(opts)
	if err != nil {
		return ports.ScanResult{}, config.Config{}, nil, err
	}
	root := scanRoot(opts, args)
	cfg, err := loadConfig(cmd, opts, root)
	if err != nil {
		return ports.ScanResult{}, config.Config{}, nil, err
	}
	a, err := openApp(cmd, opts, cfg, root)
	if err != nil {
		return ports.ScanResult{}, config.Config{}, nil, err
	}
	res, err := a.Scan()
	if err != nil {
		a.Close()
		return ports.ScanResult{}, config.Config{}, nil, err
	}
	return filter.Apply(res), cfg, a, nil
}
