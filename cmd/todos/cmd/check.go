package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/todos/internal/domain/policy"
)

func newCheckCmd(opts *options) *cobra.Command {
	c := &cobra.Command{
		Use:   "check [path]",
		Short: "Run policy checks (exit 1 on violations)",
		Long: "Evaluates policy rules against the scan:\n" +
			"  --max            maximum number of items allowed\n" +
			"  --require-issue  tags that must carry an issue reference (#123)\n" +
			"  --deny           tags that must not appear at all\n" +
			"Flags override the [policy] section of the config file.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args)
		},
	}
	c.Flags().Int("max", 0, "Maximum items allowed (0 = unlimited)")
	c.Flags().StringSlice("require-issue", nil, "Tags that require an issue reference (comma-separated)")
	c.Flags().StringSlice("deny", nil, "Tags that are not allowed (comma-separated)")
	return c
}

func runCheck(cmd *cobra.Command, opts *options, args []string) error {
	res, cfg, a, err := scanFiltered(cmd, opts, args)
	if err != nil {
		return err
	}
	defer a.Close()

	violations := policy.Check(res, policy.Rules{
		MaxTodos:     cfg.Policy.MaxTodos,
		RequireIssue: cfg.Policy.RequireIssue,
		DenyTags:     cfg.Policy.DenyTags,
	}.Normalize())

	out, errw := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if cfg.Output.Format == "json" {
		if violations == nil {
			violations = []policy.Violation{}
		}
		if err := writeJSON(out, violations); err != nil {
			return err
		}
	} else if len(violations) == 0 {
		fmt.Fprintln(out, policy.Summary(violations))
	} else {
		p := newPalette(errw, resolveColor(cfg.Output.Color, errw))
		for _, v := range violations {
			sev := p.render(p.fail, string(v.Severity))
			fmt.Fprintf(errw, "[%s] %s: %s\n", sev, v.Rule, v.Message)
		}
		fmt.Fprintln(errw)
		fmt.Fprintln(errw, policy.Summary(violations))
	}

	if policy.HasErrors(violations) {
		return exitError{code: 1}
	}
	return nil
}
