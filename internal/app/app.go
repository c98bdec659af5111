// Package app wires the scanner together: discovery, the lexical extractor
// with its keyword prefilter, the tree-sitter verifier, and the bbolt
// fingerprint cache. The CLI builds one App per invocation.
package app

import (
	"fmt"
	"log/slog"

	"github.com/corey/todos/internal/adapters/ahocorasick"
	"github.com/corey/todos/internal/adapters/bbolt"
	"github.com/corey/todos/internal/adapters/mmap"
	"github.com/corey/todos/internal/adapters/treesitter"
	"github.com/corey/todos/internal/domain/extract"
	"github.com/corey/todos/internal/domain/lang"
	"github.com/corey/todos/internal/ports"
)

// Config holds everything needed to build an App.
type Config struct {
	Root             string   // directory (or single file) to scan
	Tags             []string // custom tags added to the built-in vocabulary
	Precise          bool     // run tree-sitter verification
	Workers          int      // full-scan parallelism (0 = NumCPU)
	MaxFileSize      int64    // 0 = DefaultMaxFileSize
	Exclude          []string // extra ignore patterns
	RespectGitignore bool
	CacheEnabled     bool
	CacheDir         string   // "" = per-project .todo-tracker/
	GrammarPaths     []string // extra shared-library grammar dirs, searched first
	Logger           *slog.Logger
	Progress         Progress // optional
}

// App is the top-level container wiring all components together.
type App struct {
	Paths     *Paths
	Registry  *lang.Registry
	Scanner   *Scanner
	Discovery *Discovery
	Verifier  *treesitter.Verifier // nil when Precise is off
	Cache     *bbolt.Store         // nil when disabled or unavailable

	// CacheErr records why the cache could not be opened. Scans still run,
	// uncached.
	CacheErr error

	log *slog.Logger
}

// New creates an App with all dependencies wired. A cache that cannot be
// opened is not fatal: the failure is logged and kept in CacheErr.
func New(cfg Config) (*App, error) {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	log := cfg.Logger
	if log == nil {
		log = NewLogger(nil, false)
	}

	paths, err := NewPaths(cfg.Root, cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	grammar := extract.NewGrammar(cfg.Tags)
	prefilter := ahocorasick.NewMatcher(grammar.Tags())

	a := &App{
		Paths:    paths,
		Registry: lang.Default(),
		Discovery: NewDiscovery(cfg.Root, DiscoveryOptions{
			MaxFileSize:      cfg.MaxFileSize,
			RespectGitignore: cfg.RespectGitignore,
			Exclude:          cfg.Exclude,
		}),
		log: log,
	}

	scfg := ScannerConfig{
		Registry:  a.Registry,
		Extractor: extract.NewExtractor(grammar, prefilter),
		Reader:    mmap.Reader{},
		Workers:   cfg.Workers,
		Logger:    log,
		Progress:  cfg.Progress,
	}
	if cfg.Precise {
		a.Verifier = treesitter.NewVerifier()
		search := append([]string{}, cfg.GrammarPaths...)
		search = append(search, treesitter.DefaultGrammarPaths(paths.Project)...)
		a.Verifier.SetGrammarPaths(search)
		scfg.Verifier = a.Verifier
	}
	a.Scanner = NewScanner(scfg)

	if cfg.CacheEnabled {
		store, err := bbolt.NewStoreWithSettings(paths.CacheDB, CacheSettingsKey(grammar.Tags(), cfg.Precise))
		if err != nil {
			a.CacheErr = err
			log.Warn("cache unavailable, scanning without it", "path", paths.CacheDB, "err", err)
		} else {
			a.Cache = store
		}
	}
	return a, nil
}

// cache returns the cache as a port, or nil. A nil *bbolt.Store must not be
// wrapped in a non-nil interface.
func (a *App) cache() ports.Cache {
	if a.Cache == nil {
		return nil
	}
	return a.Cache
}

// Scan discovers files and scans them, incrementally when a cache is open.
func (a *App) Scan() (ports.ScanResult, error) {
	res, err := a.Scanner.Run(a.Discovery, a.cache())
	if err != nil {
		return ports.ScanResult{}, fmt.Errorf("discover %s: %w", a.Discovery.Root(), err)
	}
	return res, nil
}

// ClearCache wipes every cached fingerprint and item.
func (a *App) ClearCache() error {
	if a.Cache == nil {
		if a.CacheErr != nil {
			return a.CacheErr
		}
		return fmt.Errorf("cache is disabled")
	}
	if err := a.Cache.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	a.log.Info("cache cleared", "path", a.Cache.Path())
	return nil
}

// Close releases the cache and verifier.
func (a *App) Close() error {
	if a.Verifier != nil {
		a.Verifier.Close()
	}
	if a.Cache != nil {
		return a.Cache.Close()
	}
	return nil
}
