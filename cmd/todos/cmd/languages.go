package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/corey/todos/internal/adapters/treesitter"
)

func newLanguagesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and tree-sitter verification status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLanguages(cmd, opts)
		},
	}
}

func runLanguages(cmd *cobra.Command, opts *options) error {
	root := scanRoot(opts, nil)
	cfg, err := loadConfig(cmd, opts, root)
	if err != nil {
		return err
	}
	cfg.Cache.Enabled = false
	cfg.Scan.Precise = true

	a, err := openApp(cmd, opts, cfg, root)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tEXTENSIONS\tCOMMENTS\tVERIFIED")
	for _, name := range a.Registry.Names() {
		rule, _ := a.Registry.ByName(name)
		comments := strings.Join(rule.LineComments, " ")
		if rule.HasBlock() {
			comments += " " + rule.BlockStart + " " + rule.BlockEnd
		}
		verified := "no"
		if a.Verifier.Supports(name) {
			verified = "yes (" + treesitter.GrammarID(name) + ")"
		}
		fmt.Fprintf(tw, "%s\t.%s\t%s\t%s\n", name, strings.Join(rule.Extensions, " ."), comments, verified)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if loader := a.Verifier.Loader(); loader != nil {
		if ids := loader.InstalledGrammars(); len(ids) > 0 {
			fmt.Fprintf(out, "\nShared-library grammars: %s\n", strings.Join(ids, ", "))
		}
	}
	return nil
}
