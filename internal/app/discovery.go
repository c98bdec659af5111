package app

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// skipDirs lists directories never descended into.
var skipDirs = map[string]bool{
	".git":          true,
	".hg":           true,
	".svn":          true,
	"node_modules":  true,
	".venv":         true,
	"__pycache__":   true,
	"vendor":        true,
	".idea":         true,
	".vscode":       true,
	".next":         true,
	"target":        true,
	".todo-tracker": true,
}

// binaryExtensions are skipped without reading.
var binaryExtensions = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".o": true, ".obj": true,
	".bin": true, ".a": true, ".lib": true, ".class": true, ".pyc": true, ".pdb": true,
	".wasm": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true,
	".tiff": true, ".webp": true, ".pdf": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".7z": true, ".rar": true,
}

// sniffLen is how many leading bytes are checked for NUL.
const sniffLen = 512

// DefaultMaxFileSize is the size above which files are skipped.
const DefaultMaxFileSize = 1 << 20

// DiscoveryOptions configure a Discovery.
type DiscoveryOptions struct {
	MaxFileSize      int64    // 0 = DefaultMaxFileSize
	RespectGitignore bool     // read <root>/.gitignore
	Exclude          []string // extra ignore patterns
}

// Discovery walks a root directory and returns the text files to scan.
// It implements ports.Discoverer.
type Discovery struct {
	root string
	opts DiscoveryOptions
}

// NewDiscovery creates a discoverer for root.
func NewDiscovery(root string, opts DiscoveryOptions) *Discovery {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	return &Discovery{root: root, opts: opts}
}

// Root returns the directory being walked, as given.
func (d *Discovery) Root() string {
	return d.root
}

// rules assembles ignore rules: .gitignore (optional), .todoignore, then the
// configured excludes so they can override both files.
func (d *Discovery) rules() (*IgnoreRules, error) {
	ig := &IgnoreRules{}
	if d.opts.RespectGitignore {
		if err := ig.AddFile(filepath.Join(d.root, ".gitignore")); err != nil {
			return nil, err
		}
	}
	if err := ig.AddFile(filepath.Join(d.root, ".todoignore")); err != nil {
		return nil, err
	}
	ig.Add(d.opts.Exclude...)
	return ig, nil
}

// Discover returns file paths under root in sorted order. Paths are root
// joined with the file's relative path, so they are stable across runs made
// with the same root argument. Unreadable entries are skipped.
func (d *Discovery) Discover() ([]string, error) {
	info, err := os.Stat(d.root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{d.root}, nil
	}

	ig, err := d.rules()
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.Walk(d.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable
		}
		if path == d.root {
			return nil
		}
		rel, relErr := filepath.Rel(d.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if skipDirs[info.Name()] || ig.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || ig.Match(rel, false) {
			return nil
		}
		if info.Size() > d.opts.MaxFileSize {
			return nil
		}
		if binaryExtensions[strings.ToLower(filepath.Ext(path))] || isBinary(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// isBinary reports whether the first sniffLen bytes contain a NUL.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
