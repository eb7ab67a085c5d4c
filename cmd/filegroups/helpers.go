package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"filegroups/internal/config"
	"filegroups/internal/docparse"
	"filegroups/internal/export"
	"filegroups/internal/model"
	"filegroups/internal/normalizer"
	"filegroups/internal/orchestrator"
	"filegroups/internal/output"
	"filegroups/internal/scanner"
)

const formatTable = "table"

// orchestratorSettings are the per-command overrides applied on top of the
// configuration when building an orchestrator.
type orchestratorSettings struct {
	variant string
	noCache bool
	out     *output.Output
}

// newOrchestrator wires the parser, cache and audit log from the
// configuration. The returned cleanup closes whatever was opened.
func (c *commandContext) newOrchestrator(settings orchestratorSettings, opts orchestrator.Options) (*orchestrator.Orchestrator, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	variant, err := resolveVariant(settings.variant, cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := c.openCache(settings.noCache)
	if err != nil {
		return nil, nil, err
	}
	writer, err := c.openAudit()
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, err
	}

	logger := c.loggerValue()
	opts.Variant = variant
	opts.Workers = cfg.Processing.Workers
	opts.Scan = scanOptions(cfg)
	opts.Parser = docparse.New(docparse.Config{
		MaxFileSize: int64(cfg.Input.MaxFileSizeMB) << 20,
		Logger:      logger,
	})
	opts.Cache = store
	opts.Audit = writer
	opts.AppVersion = version
	opts.Logger = logger

	if out := settings.out; out != nil && opts.Progress == nil {
		opts.ProgressStart = out.StartProgress
		opts.Progress = func(done, _ int) {
			out.UpdateProgress(done, "")
		}
	}

	cleanup := func() {
		if store != nil {
			_ = store.Close()
		}
		if writer != nil {
			_ = writer.Close()
		}
	}
	return orchestrator.New(opts), cleanup, nil
}

func resolveVariant(flag string, cfg *config.Configuration) (normalizer.Variant, error) {
	name := strings.TrimSpace(flag)
	if name == "" {
		name = cfg.Engine.Variant
	}
	variant := normalizer.Variant(strings.ToLower(name))
	if !variant.Valid() {
		return "", fmt.Errorf("unknown variant %q (want full or basic)", name)
	}
	return variant, nil
}

func scanOptions(cfg *config.Configuration) scanner.ScanOptions {
	opts := scanner.DefaultScanOptions()
	opts.MaxDepth = cfg.Input.ScanDepth
	if cfg.Input.SymlinkPolicy != "" {
		opts.SymlinkPolicy = cfg.Input.SymlinkPolicy
	}
	return opts
}

// emitResult writes result in format. With a target the report is saved to
// that file or directory; otherwise it goes to stdout, where the table format
// uses the styled printer and markdown is rendered for terminals.
func emitResult(out *output.Output, format, target string, result *model.ExtractionResult, sources []string) error {
	format = strings.ToLower(strings.TrimSpace(format))

	if target != "" {
		exportFormat, err := reportFormat(format, target)
		if err != nil {
			return err
		}
		path, err := export.SaveReport(target, exportFormat, result, sources)
		if err != nil {
			return err
		}
		out.Info("Report written to %s", path)
		return nil
	}

	if format == formatTable {
		out.PrintResult(result, sources)
		return nil
	}

	exportFormat, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	switch {
	case exportFormat == export.FormatMarkdown:
		_, err := io.WriteString(out.Writer(), out.RenderMarkdown(export.Markdown(result, sources)))
		return err
	case exportFormat.Binary() && out.IsTTY():
		return errors.New("xlsx output is binary; use --output to write it to a file")
	default:
		return export.Write(out.Writer(), exportFormat, result, sources)
	}
}

// reportFormat picks the file format for a saved report: an explicit
// non-table format wins, then the target's extension, then markdown.
func reportFormat(format, target string) (export.Format, error) {
	if format != "" && format != formatTable {
		return export.ParseFormat(format)
	}
	if f, ok := export.FormatForPath(target); ok {
		return f, nil
	}
	return export.FormatMarkdown, nil
}
