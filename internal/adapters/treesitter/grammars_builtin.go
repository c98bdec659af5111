//go:build !lean

package treesitter

// Compiled-in grammars. Excluded with -tags lean, which leaves only the
// DynamicLoader for grammar lookup.

import (
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	ts_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	ts_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	ts_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	ts_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ts_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	ts_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

func langPtr(p unsafe.Pointer) *tree_sitter.Language {
	return tree_sitter.NewLanguage(p)
}

// registerBuiltinGrammars adds the nine compiled-in grammars. C# has no
// compiled-in grammar.
func (v *Verifier) registerBuiltinGrammars() {
	v.addGrammar("rust", langPtr(ts_rust.Language()))
	v.addGrammar("go", langPtr(ts_go.Language()))
	v.addGrammar("python", langPtr(ts_python.Language()))
	v.addGrammar("javascript", langPtr(ts_javascript.Language()))
	v.addGrammar("typescript", langPtr(ts_typescript.LanguageTypescript()))
	v.addGrammar("java", langPtr(ts_java.Language()))
	v.addGrammar("c", langPtr(ts_c.Language()))
	v.addGrammar("cpp", langPtr(ts_cpp.Language()))
	v.addGrammar("ruby", langPtr(ts_ruby.Language()))
}
