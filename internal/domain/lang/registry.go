// Package lang maps file extensions to comment syntax. Each language is data
// (prefixes and delimiters), not behavior: the registry is built once from a
// fixed catalogue and is read-only afterwards, so it needs no locking.
package lang

import (
	"path/filepath"
	"sort"
	"strings"
)

// Rule describes the comment syntax of one language.
type Rule struct {
	Name         string
	Extensions   []string // without leading dot
	LineComments []string
	BlockStart   string // empty when the language has no block comments
	BlockEnd     string
}

// HasBlock returns true if both block delimiters are defined.
func (r *Rule) HasBlock() bool {
	return r.BlockStart != "" && r.BlockEnd != ""
}

// cStyle is shared by every language using // and /* */.
func cStyle(name string, exts ...string) Rule {
	return Rule{
		Name:         name,
		Extensions:   exts,
		LineComments: []string{"//"},
		BlockStart:   "/*",
		BlockEnd:     "*/",
	}
}

func hashStyle(name string, exts ...string) Rule {
	return Rule{
		Name:         name,
		Extensions:   exts,
		LineComments: []string{"#"},
	}
}

// catalogue is the fixed set of supported languages.
var catalogue = []Rule{
	cStyle("Rust", "rs"),
	cStyle("Go", "go"),
	hashStyle("Python", "py", "pyi"),
	cStyle("JavaScript", "js", "jsx", "mjs", "cjs"),
	cStyle("TypeScript", "ts", "tsx"),
	cStyle("Java", "java"),
	cStyle("C", "c", "h"),
	cStyle("C++", "cpp", "cxx", "cc", "hpp", "hxx", "hh"),
	cStyle("C#", "cs"),
	hashStyle("Ruby", "rb"),
}

// Registry resolves extensions to rules.
type Registry struct {
	byExt  map[string]*Rule
	byName map[string]*Rule
	rules  []*Rule
}

// NewRegistry builds a registry from the built-in catalogue.
func NewRegistry() *Registry {
	r := &Registry{
		byExt:  make(map[string]*Rule),
		byName: make(map[string]*Rule),
	}
	for i := range catalogue {
		rule := catalogue[i]
		r.add(&rule)
	}
	return r
}

// add registers a rule under its name and every extension it claims.
func (r *Registry) add(rule *Rule) {
	r.rules = append(r.rules, rule)
	r.byName[rule.Name] = rule
	for _, ext := range rule.Extensions {
		r.byExt[ext] = rule
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Lookup returns the rule for ext. The leading dot is optional. Exact matches
// win; otherwise the lower-cased extension is tried (so "RS" finds Rust).
// Returns nil, false for unknown extensions.
func (r *Registry) Lookup(ext string) (*Rule, bool) {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return nil, false
	}
	if rule, ok := r.byExt[ext]; ok {
		return rule, true
	}
	rule, ok := r.byExt[strings.ToLower(ext)]
	return rule, ok
}

// ForPath looks up the rule for a file path by its extension.
func (r *Registry) ForPath(path string) (*Rule, bool) {
	return r.Lookup(filepath.Ext(path))
}

// ByName returns the rule with the given language name.
func (r *Registry) ByName(name string) (*Rule, bool) {
	rule, ok := r.byName[name]
	return rule, ok
}

// Names returns all language names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		names = append(names, rule.Name)
	}
	sort.Strings(names)
	return names
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
