// Package orchestrator coordinates batch analysis: it expands the requested
// paths into documents, analyzes them in parallel, consults the result cache,
// records the run in the audit log and merges everything in submission order.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"filegroups/internal/analyzer"
	"filegroups/internal/audit"
	"filegroups/internal/cache"
	"filegroups/internal/docparse"
	"filegroups/internal/logging"
	"filegroups/internal/merger"
	"filegroups/internal/model"
	"filegroups/internal/normalizer"
	"filegroups/internal/scanner"
)

// Options configures an Orchestrator. Cache and Audit are optional.
type Options struct {
	Variant    normalizer.Variant
	Workers    int // Parallel documents; values below 1 mean 1
	Scan       scanner.ScanOptions
	Parser     *docparse.Parser
	Cache      *cache.Store
	Audit      *audit.AuditWriter
	RunType    audit.RunType
	AppVersion string
	Logger     *slog.Logger
	// ProgressStart is called once with the number of documents before any
	// is analyzed. Progress is then called after each document with done
	// strictly increasing. Either may be nil.
	ProgressStart func(total int)
	Progress      func(done, total int)
}

// InlineDocument is text analyzed without reading a file, such as stdin.
type InlineDocument struct {
	Name string
	Text string
}

// Request names the inputs of one run. Paths may be files or directories;
// AIPayloads are files holding AI extractor output, merged after the
// documents in the order given.
type Request struct {
	Paths      []string
	Inline     []InlineDocument
	AIPayloads []string
}

// Orchestrator runs batch analyses.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Variant == "" {
		opts.Variant = normalizer.VariantFull
	}
	if opts.RunType == "" {
		opts.RunType = audit.RunTypeAnalyze
	}
	if opts.Parser == nil {
		opts.Parser = docparse.New(docparse.Config{Logger: opts.Logger})
	}
	if opts.Scan.SymlinkPolicy == "" {
		opts.Scan.SymlinkPolicy = scanner.DefaultScanOptions().SymlinkPolicy
	}
	opts.Scan.Extensions = docparse.SupportedExtensions()

	return &Orchestrator{
		opts:   opts,
		logger: logging.OrNop(opts.Logger).With(slog.String("component", "orchestrator")),
	}
}

// job is one document waiting for analysis.
type job struct {
	source string
	path   string // empty for inline documents
	text   string
}

// Run analyzes every document of req. A document that fails is reported in
// the summary and the rest still run; only cancellation of ctx makes Run
// return an error, alongside the partial summary.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	if o.opts.Audit != nil {
		runID, err := o.opts.Audit.StartRun(o.opts.RunType, o.opts.AppVersion)
		if err != nil {
			return nil, fmt.Errorf("start audit run: %w", err)
		}
		summary.RunID = runID
	}

	jobs := o.collect(req, summary)
	summary.Documents = make([]DocumentResult, len(jobs))

	if o.opts.ProgressStart != nil {
		o.opts.ProgressStart(len(jobs))
	}

	var progressMu sync.Mutex
	done := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				summary.Documents[i] = DocumentResult{Source: j.source, Error: err}
				return err
			}
			summary.Documents[i] = o.analyze(gctx, j)
			if o.opts.Progress != nil {
				progressMu.Lock()
				done++
				o.opts.Progress(done, len(jobs))
				progressMu.Unlock()
			}
			return nil
		})
	}
	runErr := g.Wait()

	for _, path := range req.AIPayloads {
		summary.Documents = append(summary.Documents, o.loadPayload(path))
	}

	sources := make([]merger.Source, 0, len(summary.Documents))
	for i := range summary.Documents {
		doc := &summary.Documents[i]
		o.recordDocument(doc)
		if doc.Error != nil {
			continue
		}
		sources = append(sources, merger.Source{Name: doc.Source, Result: doc.Result})
	}

	summary.Merged, summary.Sources = merger.Merge(sources)
	summary.Duration = time.Since(start)
	summary.tally()

	if o.opts.Audit != nil {
		if err := o.opts.Audit.RecordMerge(len(summary.Sources), len(summary.Merged.Patterns), summary.Merged.TotalFound, summary.Merged.AIEnhanced); err != nil {
			o.logger.Warn("audit merge record failed", logging.Error(err))
		}
		status := audit.RunStatusCompleted
		switch {
		case runErr != nil:
			status = audit.RunStatusInterrupted
		case summary.TotalDocuments > 0 && summary.SuccessCount == 0:
			status = audit.RunStatusFailed
		}
		if err := o.opts.Audit.EndRun(summary.RunID, status, summary.AuditSummary()); err != nil {
			o.logger.Warn("audit end record failed", logging.Error(err))
		}
	}

	o.logger.Info("run complete",
		slog.String("runId", string(summary.RunID)),
		slog.Int("documents", summary.TotalDocuments),
		slog.Int("failed", summary.ErrorCount),
		slog.Int("patterns", len(summary.Merged.Patterns)),
		slog.Int("totalFound", summary.Merged.TotalFound),
		slog.Duration("duration", summary.Duration),
	)

	if runErr != nil {
		return summary, runErr
	}
	return summary, nil
}

// collect expands req into jobs. Scan errors are kept on the summary.
func (o *Orchestrator) collect(req Request, summary *Summary) []job {
	files, errs := scanner.Collect(req.Paths, o.opts.Scan)
	for _, err := range errs {
		o.logger.Warn("skipping input", logging.Error(err))
		summary.ScanErrors = append(summary.ScanErrors, err)
	}

	jobs := make([]job, 0, len(files)+len(req.Inline))
	for _, f := range files {
		jobs = append(jobs, job{source: f.FullPath, path: f.FullPath})
	}
	for _, doc := range req.Inline {
		jobs = append(jobs, job{source: doc.Name, text: doc.Text})
	}
	return jobs
}

// analyze acquires the text of one document and analyzes it, consulting the
// cache first.
func (o *Orchestrator) analyze(ctx context.Context, j job) DocumentResult {
	res := DocumentResult{Source: j.source, FileType: string(docparse.TypeText)}
	logger := o.logger.With(slog.String("path", j.source))

	text := docparse.NormalizeText(j.text)
	if j.path != "" {
		doc, err := o.opts.Parser.Extract(ctx, j.path)
		if err != nil {
			res.Error = err
			return res
		}
		res.FileType = string(doc.FileType)
		text = doc.Text

		if o.opts.Audit != nil {
			identity, err := audit.CaptureIdentity(j.path)
			if err != nil {
				logger.Debug("identity capture failed", logging.Error(err))
			}
			res.Identity = identity
		}
	}

	key := cache.Key(text, string(o.opts.Variant))
	if o.opts.Cache != nil {
		cached, ok, err := o.opts.Cache.Get(ctx, key)
		if err != nil {
			logger.Warn("cache lookup failed", logging.Error(err))
		}
		if ok {
			logger.Debug("cache hit")
			res.Result = cached
			res.CacheHit = true
			return res
		}
	}

	res.Result = analyzer.Analyze(text, analyzer.Options{Variant: o.opts.Variant})

	if o.opts.Cache != nil {
		if err := o.opts.Cache.Put(ctx, key, string(o.opts.Variant), res.FileType, res.Result); err != nil {
			logger.Warn("cache store failed", logging.Error(err))
		}
	}
	logger.Debug("document analyzed",
		slog.Int("patterns", len(res.Result.Patterns)),
		slog.Int("totalFound", res.Result.TotalFound),
	)
	return res
}

// loadPayload reads and validates one AI extractor payload.
func (o *Orchestrator) loadPayload(path string) DocumentResult {
	res := DocumentResult{Source: path, FileType: "ai", AIEnhanced: true}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = fmt.Errorf("read AI payload: %w", err)
		return res
	}
	parsed, err := model.ParseAIPayload(data)
	if err != nil {
		res.Error = fmt.Errorf("AI payload %s: %w", path, err)
		return res
	}
	res.Result = parsed.Result
	res.Description = parsed.Summary
	return res
}

func (o *Orchestrator) recordDocument(doc *DocumentResult) {
	if o.opts.Audit == nil {
		return
	}

	var err error
	if doc.Error != nil {
		err = o.opts.Audit.RecordFailure(doc.Source, errorType(doc.Error), doc.Error.Error(), "analyze")
	} else {
		err = o.opts.Audit.RecordDocument(audit.DocumentOutcome{
			Source:     doc.Source,
			FileType:   doc.FileType,
			Patterns:   len(doc.Result.Patterns),
			TotalFound: doc.Result.TotalFound,
			Duplicates: len(doc.Result.Duplicates),
			CacheHit:   doc.CacheHit,
			AIEnhanced: doc.Result.AIEnhanced,
			Identity:   doc.Identity,
		})
	}
	if err != nil {
		o.logger.Warn("audit record failed", slog.String("path", doc.Source), logging.Error(err))
	}
}

// errorType names the typed error behind err for the audit log.
func errorType(err error) string {
	var parseErr *docparse.ParseError
	var schemaErr *model.SchemaError
	switch {
	case errors.As(err, &parseErr):
		return string(parseErr.Type)
	case errors.As(err, &schemaErr):
		return string(schemaErr.Type)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}
