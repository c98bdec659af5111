package cmd

import (
	"github.com/spf13/cobra"
)

func newScanCmd(opts *options, name string) *cobra.Command {
	c := &cobra.Command{
		Use:   name + " [path]",
		Short: "List annotations (default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args)
		},
	}
	c.Flags().BoolVar(&opts.context, "context", false, "Show the source line under each item")
	return c
}

func runScan(cmd *cobra.Command, opts *options, args []string) error {
	res, cfg, a, err := scanFiltered(cmd, opts, args)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	p := newPalette(out, resolveColor(cfg.Output.Color, out))
	return writeResult(out, res, cfg.Output.Format, p, textOptions{
		context: opts.context,
		summary: true,
	})
}
