package treesitter

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// grammarIDs maps registry language names to grammar identifiers. The
// identifier names the compiled-in grammar and, for dynamic loading, the
// shared library and its tree_sitter_<id> symbol.
var grammarIDs = map[string]string{
	"Rust":       "rust",
	"Go":         "go",
	"Python":     "python",
	"JavaScript": "javascript",
	"TypeScript": "typescript",
	"Java":       "java",
	"C":          "c",
	"C++":        "cpp",
	"C#":         "c_sharp",
	"Ruby":       "ruby",
}

// GrammarID returns the grammar identifier for a language name. Names outside
// the table are lower-cased with spaces and dashes mapped to underscores, so a
// dynamically loaded grammar can still be found.
func GrammarID(language string) string {
	if id, ok := grammarIDs[language]; ok {
		return id
	}
	id := strings.ToLower(strings.TrimSpace(language))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(id)
}

// commentKinds lists the node kinds that are comments, per grammar. Grammars
// not listed use the single "comment" kind.
var commentKinds = map[string][]string{
	"rust": {"line_comment", "block_comment"},
	"java": {"line_comment", "block_comment"},
}

// CommentQuery returns the query source selecting every comment node of a
// grammar, captured as @comment.
func CommentQuery(grammar string) string {
	kinds, ok := commentKinds[grammar]
	if !ok {
		kinds = []string{"comment"}
	}
	if len(kinds) == 1 {
		return "(" + kinds[0] + ") @comment"
	}
	var b strings.Builder
	b.WriteString("[")
	for i, k := range kinds {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString("(" + k + ")")
	}
	b.WriteString("] @comment")
	return b.String()
}

// addGrammar registers a compiled-in grammar by identifier.
func (v *Verifier) addGrammar(id string, lang *tree_sitter.Language) {
	if lang != nil {
		v.grammars[id] = lang
	}
}
