package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"filegroups/internal/audit"
	"filegroups/internal/docparse"
	"filegroups/internal/export"
	"filegroups/internal/orchestrator"
	"filegroups/internal/watcher"
)

// reportSuffix marks reports written by watch mode so the watcher never
// analyzes its own output.
const reportSuffix = ".groups"

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var variant string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "watch [dirs...]",
		Short: "Analyze documents as they arrive in inbox directories",
		Long: `Watch analyzes every document created in the given directories (or the
configured watch directories) once it has finished downloading. Reports are
written to the configured output directory, or printed when none is set.
Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dirs := args
			if len(dirs) == 0 {
				dirs = cfg.Watch.Directories
			}
			if len(dirs) == 0 {
				return errors.New("no directories to watch")
			}

			out := ctx.newOutput(cmd)
			orch, cleanup, err := ctx.newOrchestrator(
				orchestratorSettings{variant: variant, noCache: noCache},
				orchestrator.Options{RunType: audit.RunTypeWatch},
			)
			if err != nil {
				return err
			}
			defer cleanup()

			handler := func(hctx context.Context, path string) (watcher.Outcome, error) {
				summary, err := orch.Run(hctx, orchestrator.Request{Paths: []string{path}})
				if err != nil {
					return watcher.Outcome{}, err
				}
				if failed := summary.Failed(); len(failed) > 0 {
					return watcher.Outcome{}, failed[0].Error
				}
				if len(summary.ScanErrors) > 0 {
					return watcher.Outcome{}, summary.ScanErrors[0]
				}

				if dir := cfg.Output.Directory; dir != "" {
					report, err := saveWatchReport(dir, cfg.Output.Format, path, summary)
					if err != nil {
						return watcher.Outcome{}, err
					}
					out.Info("%s: %d file names -> %s", filepath.Base(path), summary.Merged.TotalFound, report)
				} else {
					out.Info("%s", filepath.Base(path))
					out.PrintResult(summary.Merged, summary.Sources)
				}
				return watcher.Outcome{Patterns: len(summary.Merged.Patterns), TotalFound: summary.Merged.TotalFound}, nil
			}

			w := watcher.New(watcher.Config{
				Debounce:        time.Duration(cfg.Watch.DebounceSeconds) * time.Second,
				StableThreshold: time.Duration(cfg.Watch.StableThresholdMS) * time.Millisecond,
				IgnorePatterns:  append([]string{"*" + reportSuffix + ".*"}, cfg.Watch.IgnorePatterns...),
				Extensions:      docparse.SupportedExtensions(),
				MaxPerSecond:    cfg.Watch.MaxPerSecond,
				LockFile:        cfg.Watch.LockFile,
				Logger:          ctx.loggerValue(),
			}, handler)

			if err := w.Start(cmd.Context(), dirs); err != nil {
				return err
			}
			out.Info("Watching %s (Ctrl-C to stop)", strings.Join(dirs, ", "))

			<-cmd.Context().Done()
			summary := w.Stop()
			out.Info("Analyzed %d documents (%d failed, %d ignored), %d file names found in %s",
				summary.DocumentsAnalyzed, summary.DocumentsFailed, summary.EventsIgnored,
				summary.FilesFound, summary.Duration.Round(time.Second))
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "Normalizer variant: full or basic")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Analyze every document even when a cached result exists")
	return cmd
}

// saveWatchReport writes the report for one document as
// <document stem>.groups<ext> in dir, never overwriting an earlier report.
func saveWatchReport(dir, format, source string, summary *orchestrator.Summary) (string, error) {
	exportFormat := export.FormatMarkdown
	if format != "" && format != formatTable {
		f, err := export.ParseFormat(format)
		if err != nil {
			return "", err
		}
		exportFormat = f
	}

	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	name := export.UniqueName(dir, stem+reportSuffix+exportFormat.Extension())
	path, err := export.SaveReport(filepath.Join(dir, name), exportFormat, summary.Merged, summary.Sources)
	if err != nil {
		return "", fmt.Errorf("save report for %s: %w", source, err)
	}
	return path, nil
}
