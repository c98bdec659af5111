// Package treesitter verifies lexical candidates against a real syntax tree.
// A candidate survives only if the byte where its tag starts lies inside a
// comment node. Nine grammars are compiled in via CGo; further grammars can be
// loaded at runtime from shared libraries through purego.
//
// The verifier never adds candidates and never fails: any language without a
// grammar, any parse failure and any query failure returns the input unchanged.
package treesitter

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/corey/todos/internal/ports"
)

// queryCacheSize bounds the compiled-query cache. It is larger than the
// compiled-in grammar set so queries are not evicted in normal use.
const queryCacheSize = 64

// Verifier filters candidates with tree-sitter. Safe for concurrent use: each
// Verify call owns its parser, tree and query cursor, and compiled queries are
// shared read-only.
type Verifier struct {
	grammars map[string]*tree_sitter.Language // grammar id -> language, fixed after construction
	loader   *DynamicLoader                   // optional: loads grammars from .so/.dylib

	mu      sync.Mutex // serializes query compilation
	queries *lru.Cache[string, *tree_sitter.Query]
}

// NewVerifier creates a verifier with every compiled-in grammar registered.
func NewVerifier() *Verifier {
	queries, err := lru.NewWithEvict[string, *tree_sitter.Query](queryCacheSize,
		func(_ string, q *tree_sitter.Query) { q.Close() })
	if err != nil {
		panic(err) // only on a non-positive size
	}
	v := &Verifier{
		grammars: make(map[string]*tree_sitter.Language),
		queries:  queries,
	}
	v.registerBuiltinGrammars()
	return v
}

// SetGrammarPaths enables loading grammars from shared libraries in paths.
// Project-local paths should come first.
func (v *Verifier) SetGrammarPaths(paths []string) {
	if len(paths) == 0 {
		v.loader = nil
		return
	}
	v.loader = NewDynamicLoader(paths)
}

// Loader returns the dynamic grammar loader, or nil if not configured.
func (v *Verifier) Loader() *DynamicLoader {
	return v.loader
}

// GrammarCount returns the number of compiled-in grammars.
func (v *Verifier) GrammarCount() int {
	return len(v.grammars)
}

// Supports reports whether a grammar is available for language, either
// compiled in or present as a shared library on the search path.
func (v *Verifier) Supports(language string) bool {
	id := GrammarID(language)
	if _, ok := v.grammars[id]; ok {
		return true
	}
	return v.loader != nil && v.loader.GrammarPath(id) != ""
}

// Close releases compiled queries and dynamic library handles.
func (v *Verifier) Close() {
	v.mu.Lock()
	v.queries.Purge()
	v.mu.Unlock()
	if v.loader != nil {
		v.loader.Close()
	}
}

// language resolves a grammar, falling back to the dynamic loader.
func (v *Verifier) language(id string) (*tree_sitter.Language, bool) {
	if lang, ok := v.grammars[id]; ok {
		return lang, true
	}
	if v.loader == nil {
		return nil, false
	}
	lang, err := v.loader.LoadGrammar(id)
	if err != nil {
		return nil, false
	}
	return lang, true
}

// query returns the compiled comment query for a grammar.
func (v *Verifier) query(id string, lang *tree_sitter.Language) (*tree_sitter.Query, error) {
	if q, ok := v.queries.Get(id); ok {
		return q, nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if q, ok := v.queries.Get(id); ok {
		return q, nil
	}
	q, qerr := tree_sitter.NewQuery(lang, CommentQuery(id))
	if qerr != nil {
		return nil, fmt.Errorf("comment query for %s: %s", id, qerr.Message)
	}
	v.queries.Add(id, q)
	return q, nil
}

// CommentRanges parses source with the grammar for language and returns the
// byte range of every comment node, in document order.
func (v *Verifier) CommentRanges(source []byte, language string) ([]ports.CommentRange, error) {
	id := GrammarID(language)
	lang, ok := v.language(id)
	if !ok {
		return nil, fmt.Errorf("no grammar for %q", language)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", id, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no tree", id)
	}
	defer tree.Close()

	q, err := v.query(id, lang)
	if err != nil {
		return nil, err
	}

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	var ranges []ports.CommentRange
	matches := qc.Matches(q, tree.RootNode(), source)
	for m := matches.Next(); m != nil; m = matches.Next() {
		for _, c := range m.Captures {
			ranges = append(ranges, ports.CommentRange{
				Start: c.Node.StartByte(),
				End:   c.Node.EndByte(),
			})
		}
	}
	return ranges, nil
}

// Verify keeps the candidates whose tag lies inside a comment node. When no
// grammar is available or the source cannot be parsed, items is returned
// unchanged and every candidate counts as verified.
func (v *Verifier) Verify(items []ports.Item, source []byte, language string) ([]ports.Item, ports.VerifyStats) {
	passThrough := ports.VerifyStats{Total: len(items), Verified: len(items)}
	if len(items) == 0 {
		return items, passThrough
	}

	ranges, err := v.CommentRanges(source, language)
	if err != nil {
		return items, passThrough
	}

	lines := newLineIndex(source)
	stats := ports.VerifyStats{Total: len(items)}
	kept := make([]ports.Item, 0, len(items))
	for _, it := range items {
		off, ok := lines.tagOffset(it.Line, it.Column)
		if ok && inRanges(ranges, off) {
			kept = append(kept, it)
			stats.Verified++
		} else {
			stats.Filtered++
		}
	}
	return kept, stats
}

func inRanges(ranges []ports.CommentRange, off uint) bool {
	for _, r := range ranges {
		if r.Contains(off) {
			return true
		}
	}
	return false
}

// LineOffset returns the byte offset where the 1-based line starts, counting
// '\n' bytes. The line just past a trailing newline is valid; line 0 and
// lines beyond it are not.
func LineOffset(source []byte, line int) (uint, bool) {
	if line < 1 {
		return 0, false
	}
	if line == 1 {
		return 0, true
	}
	current := 1
	for i, b := range source {
		if b != '\n' {
			continue
		}
		current++
		if current == line {
			return uint(i + 1), true
		}
	}
	return 0, false
}

// lineIndex caches line start offsets for one source buffer.
type lineIndex struct {
	starts []uint
}

func newLineIndex(source []byte) lineIndex {
	starts := []uint{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, uint(i+1))
		}
	}
	return lineIndex{starts: starts}
}

// tagOffset returns the byte offset of a tag at (line, column). A zero
// column anchors at the line start.
func (l lineIndex) tagOffset(line, column int) (uint, bool) {
	if line < 1 || line > len(l.starts) {
		return 0, false
	}
	off := l.starts[line-1]
	if column > 1 {
		off += uint(column - 1)
	}
	return off, true
}
