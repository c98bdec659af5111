// todos finds TODO, FIXME, HACK, BUG and XXX annotations in source comments.
// Lexical candidates are confirmed against a tree-sitter syntax tree, and
// per-file results are cached in bbolt so unchanged files are never re-read.
package main

import (
	"fmt"
	"os"

	"github.com/corey/todos/cmd/todos/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if code := cmd.ExitCode(err); code >= 0 {
			os.Exit(code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
