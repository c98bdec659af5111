package cmd

import (
	"github.com/spf13/cobra"
)

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [path]",
		Short: "Show annotation statistics by tag, file and author",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, opts, args)
		},
	}
}

func runStats(cmd *cobra.Command, opts *options, args []string) error {
	res, cfg, a, err := scanFiltered(cmd, opts, args)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	switch cfg.Output.Format {
	case "json":
		return writeJSON(out, res.Stats)
	case "count":
		writeCount(out, res)
		return nil
	}
	writeStats(out, res, newPalette(out, resolveColor(cfg.Output.Color, out)))
	return nil
}
