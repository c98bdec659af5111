package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(opts *options) *cobra.Command {
	c := &cobra.Command{
		Use:   "cache",
		Short: "Manage the incremental scan cache",
	}
	c.AddCommand(&cobra.Command{
		Use:   "clear [path]",
		Short: "Delete every cached fingerprint and item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear(cmd, opts, args)
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "info [path]",
		Short: "Show the cache location and size",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheInfo(cmd, opts, args)
		},
	})
	return c
}

func runCacheClear(cmd *cobra.Command, opts *options, args []string) error {
	root := scanRoot(opts, args)
	cfg, err := loadConfig(cmd, opts, root)
	if err != nil {
		return err
	}
	cfg.Cache.Enabled = true

	a, err := openApp(cmd, opts, cfg, root)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ClearCache(); err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("cannot clear cache: %s", diagnoseDBLock(a.Paths.CacheDB))
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", a.Paths.CacheDB)
	return nil
}

func runCacheInfo(cmd *cobra.Command, opts *options, args []string) error {
	root := scanRoot(opts, args)
	cfg, err := loadConfig(cmd, opts, root)
	if err != nil {
		return err
	}
	cfg.Cache.Enabled = true

	a, err := openApp(cmd, opts, cfg, root)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Path:   %s\n", a.Paths.CacheDB)
	if a.Cache == nil {
		fmt.Fprintf(out, "Status: unavailable (%v)\n", a.CacheErr)
		return nil
	}
	fmt.Fprintf(out, "Files:  %d\n", a.Cache.Len())
	return nil
}
