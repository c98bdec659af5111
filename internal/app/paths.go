package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"
)

// Paths holds the resolved filesystem locations for one project.
type Paths struct {
	Project     string // absolute project root
	Root        string // .todo-tracker/
	CacheDB     string // .todo-tracker/cache.db, or <cache dir>/<hash>/cache.db
	GrammarsDir string // .todo-tracker/grammars/
	ConfigFile  string // .todo-tracker.toml
}

// NewPaths constructs all paths from a project root. When cacheDir is set the
// database moves to <cacheDir>/<xxh3 of the absolute root>/cache.db so that
// projects sharing a global cache directory never collide.
func NewPaths(projectRoot, cacheDir string) (*Paths, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if fi, err := os.Stat(abs); err == nil && !fi.IsDir() {
		abs = filepath.Dir(abs)
	}

	root := filepath.Join(abs, ".todo-tracker")
	p := &Paths{
		Project:     abs,
		Root:        root,
		CacheDB:     filepath.Join(root, "cache.db"),
		GrammarsDir: filepath.Join(root, "grammars"),
		ConfigFile:  filepath.Join(abs, ".todo-tracker.toml"),
	}
	if cacheDir != "" {
		p.CacheDB = filepath.Join(cacheDir, ProjectKey(abs), "cache.db")
	}
	return p, nil
}

// ProjectKey is the directory name a project gets inside a shared cache dir.
func ProjectKey(absRoot string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(absRoot))
}

// CacheSettingsKey identifies the scan settings cached rows were produced
// under: the tag set, order-independent, and whether verification ran.
func CacheSettingsKey(tags []string, precise bool) string {
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)
	return fmt.Sprintf("%016x", xxh3.HashString(fmt.Sprintf("%s|precise=%t", strings.Join(sorted, ","), precise)))
}

// EnsureDirs creates the directory holding the cache database. Idempotent.
func (p *Paths) EnsureDirs() error {
	return os.MkdirAll(filepath.Dir(p.CacheDB), 0755)
}
