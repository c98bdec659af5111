//go:build lean

package treesitter

// Lean builds carry no compiled-in grammars; every grammar comes from the
// DynamicLoader.
//
// Build with: go build -tags lean ./cmd/todos/

func (v *Verifier) registerBuiltinGrammars() {}
