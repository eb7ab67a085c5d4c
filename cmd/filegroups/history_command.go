package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"filegroups/internal/audit"
	"filegroups/internal/output"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List past runs or show the events of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Audit.Enabled {
				return errors.New("run history is disabled (audit.enabled = false)")
			}
			reader := audit.NewAuditReader(cfg.Audit.LogDirectory)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				return printRun(cmd, reader, audit.RunID(args[0]))
			}

			runs, err := reader.ListRuns()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartTime.After(runs[j].StartTime) })
			if limit > 0 && len(runs) > limit {
				runs = runs[:limit]
			}

			rows := make([]output.RunRow, len(runs))
			for i, r := range runs {
				rows[i] = output.RunRow{
					RunID:      string(r.RunID),
					Type:       string(r.RunType),
					Status:     string(r.Status),
					Started:    r.StartTime,
					Duration:   r.Duration(),
					Documents:  r.Summary.Documents,
					Failed:     r.Summary.Failed,
					TotalFound: r.Summary.TotalFound,
				}
			}
			fmt.Fprintln(out, output.RunTable(rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many runs (0 = all)")
	return cmd
}

func printRun(cmd *cobra.Command, reader *audit.AuditReader, runID audit.RunID) error {
	info, err := reader.GetRunByID(runID)
	if err != nil {
		return err
	}
	events, err := reader.GetRun(runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, output.KeyValueTable([][2]string{
		{"Run", string(info.RunID)},
		{"Type", string(info.RunType)},
		{"Status", string(info.Status)},
		{"Version", info.AppVersion},
		{"Started", info.StartTime.Local().Format("2006-01-02 15:04:05")},
		{"Duration", info.Duration().String()},
		{"Documents", fmt.Sprintf("%d (%d failed, %d cached)", info.Summary.Documents, info.Summary.Failed, info.Summary.CacheHits)},
		{"Result", fmt.Sprintf("%d file names in %d groups", info.Summary.TotalFound, info.Summary.Patterns)},
	}))

	for _, e := range events {
		switch e.EventType {
		case audit.EventDocumentAnalyzed:
			cached := ""
			if e.Metadata["cacheHit"] == "true" {
				cached = ", cached"
			}
			fmt.Fprintf(out, "  ok    %s (%s file names%s)\n", e.SourcePath, e.Metadata["totalFound"], cached)
		case audit.EventDocumentFailed:
			msg := ""
			if e.ErrorDetails != nil {
				msg = e.ErrorDetails.ErrorType + ": " + e.ErrorDetails.ErrorMessage
			}
			fmt.Fprintf(out, "  fail  %s %s\n", e.SourcePath, msg)
		}
	}
	return nil
}
