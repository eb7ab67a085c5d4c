package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"filegroups/internal/orchestrator"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var format string
	var outputPath string
	var aiResults []string
	var noCache bool
	var variant string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Extract and group the file names mentioned in documents",
		Long: `Analyze reads each document (PDF, DOCX, HTML or plain text), extracts the
file names it mentions and groups them by naming convention. Directories are
scanned for documents; "-" reads text from stdin. Without paths the
configured input directories are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			req := orchestrator.Request{AIPayloads: aiResults}
			for _, arg := range args {
				if arg != "-" {
					req.Paths = append(req.Paths, arg)
					continue
				}
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				req.Inline = append(req.Inline, orchestrator.InlineDocument{Name: "stdin", Text: string(data)})
			}
			if len(args) == 0 {
				req.Paths = cfg.Input.Directories
			}
			if len(req.Paths) == 0 && len(req.Inline) == 0 && len(req.AIPayloads) == 0 {
				return errors.New("no documents given and no input directories configured")
			}

			if format == "" {
				format = cfg.Output.Format
			}
			if outputPath == "" {
				outputPath = cfg.Output.Directory
			}

			out := ctx.newOutput(cmd)
			orch, cleanup, err := ctx.newOrchestrator(orchestratorSettings{variant: variant, noCache: noCache, out: out}, orchestrator.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			if dryRun {
				return printStatus(cmd, orch, req)
			}

			summary, runErr := orch.Run(cmd.Context(), req)
			out.EndProgress()
			if summary == nil {
				return runErr
			}

			for _, scanErr := range summary.ScanErrors {
				out.Error("Warning: %v", scanErr)
			}
			for _, doc := range summary.Failed() {
				out.Error("Error processing %s: %v", doc.Source, doc.Error)
			}
			if runErr != nil {
				return runErr
			}

			if err := emitResult(out, format, outputPath, summary.Merged, summary.Sources); err != nil {
				return err
			}
			out.Verbose("%s", summary.PrintSummary())

			if summary.SuccessCount == 0 && summary.HasErrors() {
				return errors.New("no document could be analyzed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: table, markdown, json, yaml, csv or xlsx")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to this file or directory")
	cmd.Flags().StringArrayVar(&aiResults, "ai-result", nil, "AI extractor payload (JSON) to merge; repeatable")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Analyze every document even when a cached result exists")
	cmd.Flags().StringVar(&variant, "variant", "", "Normalizer variant: full or basic")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the documents that would be analyzed")
	return cmd
}

func printStatus(cmd *cobra.Command, orch *orchestrator.Orchestrator, req orchestrator.Request) error {
	status, err := orch.Status(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, scanErr := range status.ScanErrors {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", scanErr)
	}
	for _, dir := range status.Directories {
		fmt.Fprintf(out, "%s\n", dir)
		for _, doc := range status.ByDirectory[dir] {
			marker := ""
			if doc.Cached {
				marker = " (cached)"
			}
			fmt.Fprintf(out, "  %s [%s]%s\n", filepath.Base(doc.Path), doc.FileType, marker)
		}
	}
	if n := len(req.Inline); n > 0 {
		fmt.Fprintf(out, "stdin: %d document(s)\n", n)
	}
	fmt.Fprintf(out, "%d documents pending, %d cached\n", status.Total+len(req.Inline), status.CachedTotal)
	return nil
}
