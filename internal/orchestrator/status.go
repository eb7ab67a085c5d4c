package orchestrator

import (
	"context"
	"path/filepath"
	"sort"

	"filegroups/internal/cache"
	"filegroups/internal/docparse"
	"filegroups/internal/scanner"
)

// PendingDocument is one document a run would analyze.
type PendingDocument struct {
	Path     string
	FileType docparse.FileType
	Size     int64
	Cached   bool // A cached result exists for the current text and variant
}

// StatusResult lists what a run over a request would do, without running it.
type StatusResult struct {
	ByDirectory map[string][]PendingDocument // Parent directory -> documents, in scan order
	Directories []string                     // Keys of ByDirectory, sorted
	ScanErrors  []error
	Total       int
	CachedTotal int
}

// Status expands req.Paths and reports the documents a run would analyze,
// grouped by parent directory. When a cache is configured each document is
// read to check whether its result is already cached; nothing is analyzed or
// written.
func (o *Orchestrator) Status(ctx context.Context, req Request) (*StatusResult, error) {
	result := &StatusResult{ByDirectory: make(map[string][]PendingDocument)}

	files, errs := scanner.Collect(req.Paths, o.opts.Scan)
	result.ScanErrors = errs

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ft, _ := docparse.Detect(f.FullPath)
		pending := PendingDocument{Path: f.FullPath, FileType: ft, Size: f.Size}
		if o.opts.Cache != nil {
			pending.Cached = o.isCached(ctx, f)
		}

		dir := filepath.Dir(f.FullPath)
		if _, ok := result.ByDirectory[dir]; !ok {
			result.Directories = append(result.Directories, dir)
		}
		result.ByDirectory[dir] = append(result.ByDirectory[dir], pending)
		result.Total++
		if pending.Cached {
			result.CachedTotal++
		}
	}
	sort.Strings(result.Directories)

	return result, nil
}

func (o *Orchestrator) isCached(ctx context.Context, f scanner.FileEntry) bool {
	doc, err := o.opts.Parser.Extract(ctx, f.FullPath)
	if err != nil {
		return false
	}
	_, ok, err := o.opts.Cache.Get(ctx, cache.Key(doc.Text, string(o.opts.Variant)))
	return err == nil && ok
}
