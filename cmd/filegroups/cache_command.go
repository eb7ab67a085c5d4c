package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"filegroups/internal/output"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the result cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePurgeCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show result cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache(false)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("result cache is disabled (cache.enabled = false)")
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			oldest, newest := "-", "-"
			if stats.Entries > 0 {
				oldest = stats.Oldest.Local().Format("2006-01-02 15:04")
				newest = stats.Newest.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintln(cmd.OutOrStdout(), output.KeyValueTable([][2]string{
				{"Path", stats.Path},
				{"Entries", strconv.Itoa(stats.Entries)},
				{"Size", humanBytes(stats.Bytes)},
				{"Oldest", oldest},
				{"Newest", newest},
			}))
			return nil
		},
	}
}

func newCachePurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove every cached result",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache(false)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("result cache is disabled (cache.enabled = false)")
			}
			defer store.Close()

			removed, err := store.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached results\n", removed)
			return nil
		},
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
