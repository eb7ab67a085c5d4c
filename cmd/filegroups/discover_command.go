package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"filegroups/internal/audit"
	"filegroups/internal/discovery"
)

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var depth int
	var hidden bool
	var variant string
	var format string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "discover DIR",
		Short: "Show the naming conventions of files already on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			v, err := resolveVariant(variant, cfg)
			if err != nil {
				return err
			}
			if format == "" {
				format = formatTable
			}

			writer, err := ctx.openAudit()
			if err != nil {
				return err
			}
			var runID audit.RunID
			if writer != nil {
				defer writer.Close()
				if runID, err = writer.StartRun(audit.RunTypeDiscover, version); err != nil {
					return fmt.Errorf("start audit run: %w", err)
				}
			}

			result, err := discovery.Discover(args[0], discovery.Options{MaxDepth: depth, IncludeHidden: hidden, Variant: v})
			if writer != nil {
				status, summary := audit.RunStatusCompleted, audit.RunSummary{}
				if err != nil {
					status = audit.RunStatusFailed
				} else {
					summary = audit.RunSummary{
						Documents:  result.FilesAnalyzed,
						Analyzed:   result.FilesAnalyzed,
						Patterns:   len(result.Result.Patterns),
						TotalFound: result.Result.TotalFound,
					}
				}
				if endErr := writer.EndRun(runID, status, summary); endErr != nil {
					ctx.loggerValue().Warn("audit end record failed", "error", endErr)
				}
			}
			if err != nil {
				return fmt.Errorf("discover %s: %w", args[0], err)
			}

			out := ctx.newOutput(cmd)
			if err := emitResult(out, format, outputPath, result.Result, []string{result.Root}); err != nil {
				return err
			}

			if outputPath == "" && strings.EqualFold(format, formatTable) {
				for _, folder := range result.Folders {
					patterns := "no recurring pattern"
					if len(folder.Patterns) > 0 {
						patterns = strings.Join(folder.Patterns, ", ")
					}
					out.Info("%s: %d files, %s", folder.Path, folder.Files, patterns)
				}
				out.Info("Scanned %d directories, %d files recognized, %d skipped",
					result.ScannedDirs, result.FilesAnalyzed, result.FilesSkipped)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", -1, "Levels below DIR to scan (-1 = unlimited)")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Include hidden files and directories")
	cmd.Flags().StringVar(&variant, "variant", "", "Normalizer variant: full or basic")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: table, markdown, json, yaml, csv or xlsx")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to this file or directory")
	return cmd
}
