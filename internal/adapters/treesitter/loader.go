package treesitter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// DynamicLoader loads tree-sitter grammars from shared libraries (.so on Linux,
// .dylib on macOS) using purego, so languages without a compiled-in grammar
// (C#, or anything in a lean build) can still be verified.
type DynamicLoader struct {
	searchPaths []string
	mu          sync.Mutex
	loaded      map[string]*tree_sitter.Language
	failed      map[string]error
	handles     []uintptr
}

// NewDynamicLoader creates a loader that searches paths in order; first
// match wins.
func NewDynamicLoader(searchPaths []string) *DynamicLoader {
	return &DynamicLoader{
		searchPaths: searchPaths,
		loaded:      make(map[string]*tree_sitter.Language),
		failed:      make(map[string]error),
	}
}

// DefaultGrammarPaths returns the project grammar directory
// (<root>/.todo-tracker/grammars) followed by the user one
// (<config dir>/todo-tracker/grammars).
func DefaultGrammarPaths(projectRoot string) []string {
	var paths []string
	if projectRoot != "" {
		paths = append(paths, filepath.Join(projectRoot, ".todo-tracker", "grammars"))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "todo-tracker", "grammars"))
	}
	return paths
}

// LibExtension returns the shared library extension for the current platform.
func LibExtension() string {
	if runtime.GOOS == "darwin" {
		return ".dylib"
	}
	return ".so"
}

// CSymbolName returns the exported constructor for a grammar id.
func CSymbolName(id string) string {
	return "tree_sitter_" + strings.ReplaceAll(id, "-", "_")
}

// libFile returns the candidate shared library path for id in dir.
func libFile(dir, id string) string {
	return filepath.Join(dir, id+LibExtension())
}

// GrammarPath returns the shared library for a grammar id, or "" if none of
// the search paths has one.
func (dl *DynamicLoader) GrammarPath(id string) string {
	for _, dir := range dl.searchPaths {
		candidate := libFile(dir, id)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate
		}
	}
	return ""
}

// LoadGrammar opens the shared library for id and resolves its constructor.
// Successes and failures are both remembered, so a broken library is opened
// at most once per process.
func (dl *DynamicLoader) LoadGrammar(id string) (*tree_sitter.Language, error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if cached, ok := dl.loaded[id]; ok {
		return cached, nil
	}
	if err, ok := dl.failed[id]; ok {
		return nil, err
	}

	lang, err := dl.load(id)
	if err != nil {
		dl.failed[id] = err
		return nil, err
	}
	dl.loaded[id] = lang
	return lang, nil
}

func (dl *DynamicLoader) load(id string) (*tree_sitter.Language, error) {
	soPath := dl.GrammarPath(id)
	if soPath == "" {
		return nil, fmt.Errorf("grammar %q: shared library not found in search paths", id)
	}

	handle, err := purego.Dlopen(soPath, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("grammar %q: dlopen %s: %w", id, soPath, err)
	}
	dl.handles = append(dl.handles, handle)

	sym := CSymbolName(id)
	if _, err := purego.Dlsym(handle, sym); err != nil {
		return nil, fmt.Errorf("grammar %q: symbol %s: %w", id, sym, err)
	}
	var ctor func() uintptr
	purego.RegisterLibFunc(&ctor, handle, sym)

	ptr := ctor()
	if ptr == 0 {
		return nil, fmt.Errorf("grammar %q: %s() returned null", id, sym)
	}
	// ptr is a static TSLanguage* owned by the library, not Go memory.
	return tree_sitter.NewLanguage(*(*unsafe.Pointer)(unsafe.Pointer(&ptr))), nil
}

// InstalledGrammars returns the grammar ids found in the search paths, sorted
// and without duplicates.
func (dl *DynamicLoader) InstalledGrammars() []string {
	ext := LibExtension()
	seen := make(map[string]bool)
	var ids []string
	for _, dir := range dl.searchPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ext) {
				continue
			}
			id := strings.TrimSuffix(name, ext)
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// Close forgets loaded grammars. Library handles stay mapped for the life of
// the process because languages may still be referenced by live trees.
func (dl *DynamicLoader) Close() {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.handles = nil
	dl.loaded = make(map[string]*tree_sitter.Language)
	dl.failed = make(map[string]error)
}

// SearchPaths returns the configured search paths.
func (dl *DynamicLoader) SearchPaths() []string {
	return dl.searchPaths
}
