package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"filegroups/internal/audit"
	"filegroups/internal/cache"
	"filegroups/internal/docparse"
	"filegroups/internal/model"
	"filegroups/internal/scanner"
)

func writeDocs(t *testing.T, dir string, docs map[string]string) {
	t.Helper()
	for name, text := range docs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func sampleInbox(t *testing.T) string {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{
		"a.txt":     "Invoice_001.pdf\nInvoice_002.pdf\n",
		"b.txt":     "Invoice_003.pdf\nreadme.md\n",
		"photo.png": "not a document",
	})
	return dir
}

func TestRunMergesInSubmissionOrder(t *testing.T) {
	dir := sampleInbox(t)

	o := New(Options{Workers: 4})
	summary, err := o.Run(context.Background(), Request{Paths: []string{dir}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantSources := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	if !reflect.DeepEqual(summary.Sources, wantSources) {
		t.Errorf("Sources = %v, want %v", summary.Sources, wantSources)
	}
	if summary.TotalDocuments != 2 || summary.SuccessCount != 2 || summary.HasErrors() {
		t.Errorf("summary = %s, scan errors %v", summary.PrintSummary(), summary.ScanErrors)
	}
	if summary.Merged.TotalFound != 4 {
		t.Errorf("Merged.TotalFound = %d, want 4", summary.Merged.TotalFound)
	}
	if err := summary.Merged.Validate(); err != nil {
		t.Errorf("merged result invalid: %v", err)
	}
	if summary.Merged.Patterns[0].Pattern != "Invoice_XXX.pdf" {
		t.Errorf("first pattern = %q", summary.Merged.Patterns[0].Pattern)
	}
}

func TestRunReportsScanAndDocumentErrors(t *testing.T) {
	dir := sampleInbox(t)
	writeDocs(t, dir, map[string]string{"big.txt": "Invoice_004.pdf\n" + string(make([]byte, 128))})

	o := New(Options{Parser: docparse.New(docparse.Config{MaxFileSize: 64})})
	summary, err := o.Run(context.Background(), Request{
		Paths: []string{dir, filepath.Join(dir, "photo.png"), filepath.Join(dir, "missing")},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(summary.ScanErrors) != 2 {
		t.Errorf("ScanErrors = %v, want 2", summary.ScanErrors)
	}
	failed := summary.Failed()
	if len(failed) != 1 || failed[0].Source != filepath.Join(dir, "big.txt") {
		t.Fatalf("Failed() = %+v", failed)
	}
	var parseErr *docparse.ParseError
	if !errors.As(failed[0].Error, &parseErr) || parseErr.Type != docparse.FileTooLarge {
		t.Errorf("error = %v, want FILE_TOO_LARGE", failed[0].Error)
	}
	if summary.SuccessCount != 2 || summary.ErrorCount != 1 || !summary.HasErrors() {
		t.Errorf("unexpected counts: %s", summary.PrintSummary())
	}
	if len(summary.Sources) != 2 {
		t.Errorf("failed documents must not be merged, sources = %v", summary.Sources)
	}
}

func TestRunInlineDocuments(t *testing.T) {
	o := New(Options{})
	summary, err := o.Run(context.Background(), Request{
		Inline: []InlineDocument{{Name: "stdin", Text: "IMG_001.jpg\r\nIMG_002.jpg\r\nIMG_001.jpg\r\n"}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	doc := summary.Documents[0]
	if doc.Source != "stdin" || doc.FileType != string(docparse.TypeText) {
		t.Errorf("document = %+v", doc)
	}
	if doc.Result.TotalFound != 2 || !reflect.DeepEqual(doc.Result.Duplicates, []string{"img_001.jpg"}) {
		t.Errorf("result = %+v", doc.Result)
	}
}

func TestRunUsesCache(t *testing.T) {
	dir := sampleInbox(t)
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), nil)
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	defer store.Close()

	o := New(Options{Cache: store, Workers: 2})
	first, err := o.Run(context.Background(), Request{Paths: []string{dir}})
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	second, err := o.Run(context.Background(), Request{Paths: []string{dir}})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if first.CacheHits != 0 || second.CacheHits != 2 {
		t.Errorf("cache hits = %d then %d, want 0 then 2", first.CacheHits, second.CacheHits)
	}
	if !reflect.DeepEqual(first.Merged, second.Merged) {
		t.Errorf("cached merge differs:\n%+v\n%+v", first.Merged, second.Merged)
	}
}

func TestRunWritesAuditLog(t *testing.T) {
	dir := sampleInbox(t)
	logDir := t.TempDir()
	writer, err := audit.NewAuditWriter(audit.DefaultAuditConfig(logDir))
	if err != nil {
		t.Fatalf("NewAuditWriter() error = %v", err)
	}

	o := New(Options{Audit: writer, AppVersion: "test"})
	summary, err := o.Run(context.Background(), Request{Paths: []string{dir}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	events, err := audit.NewAuditReader(logDir).GetRun(summary.RunID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	var types []audit.EventType
	for _, e := range events {
		types = append(types, e.EventType)
	}
	want := []audit.EventType{
		audit.EventRunStart,
		audit.EventDocumentAnalyzed,
		audit.EventDocumentAnalyzed,
		audit.EventResultsMerged,
		audit.EventRunEnd,
	}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("event types = %v, want %v", types, want)
	}
	if events[1].FileIdentity == nil || events[1].FileIdentity.ContentHash == "" {
		t.Error("document event should carry the file identity")
	}

	info, err := audit.NewAuditReader(logDir).GetRunByID(summary.RunID)
	if err != nil {
		t.Fatalf("GetRunByID() error = %v", err)
	}
	if info.Status != audit.RunStatusCompleted || info.Summary.TotalFound != 4 {
		t.Errorf("run info = %+v", info)
	}
}

func TestRunMergesAIPayloads(t *testing.T) {
	dir := sampleInbox(t)
	payloads := t.TempDir()
	writeDocs(t, payloads, map[string]string{
		"good.json": `{"patterns":[{"pattern":"Scan_XX.png","description":"Scanned pages","files":[` +
			`{"name":"Scan_01.png","confidence":"high"},{"name":"Scan_02.png","confidence":"low"}]}],"summary":"scans"}`,
		"bad.json": `{"patterns":[{"pattern":"X","files":[{"name":"a.pdf","confidence":"certain"}]}]}`,
	})

	o := New(Options{})
	summary, err := o.Run(context.Background(), Request{
		Paths:      []string{dir},
		AIPayloads: []string{filepath.Join(payloads, "good.json"), filepath.Join(payloads, "bad.json")},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(summary.Documents) != 4 {
		t.Fatalf("Documents = %d, want 4", len(summary.Documents))
	}
	good, bad := summary.Documents[2], summary.Documents[3]
	if !good.AIEnhanced || good.Error != nil || good.Description != "scans" {
		t.Errorf("good payload = %+v", good)
	}
	var schemaErr *model.SchemaError
	if !errors.As(bad.Error, &schemaErr) {
		t.Errorf("bad payload error = %v, want SchemaError", bad.Error)
	}
	if !summary.Merged.AIEnhanced || summary.Merged.TotalFound != 6 {
		t.Errorf("merged = %+v", summary.Merged)
	}
	if summary.Sources[len(summary.Sources)-1] != filepath.Join(payloads, "good.json") {
		t.Errorf("AI payload should merge after documents, sources = %v", summary.Sources)
	}
}

func TestRunCancelled(t *testing.T) {
	dir := sampleInbox(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := New(Options{}).Run(ctx, Request{Paths: []string{dir}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if summary == nil || summary.SuccessCount != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRunReportsProgress(t *testing.T) {
	dir := t.TempDir()
	docs := make(map[string]string)
	for i := 1; i <= 12; i++ {
		docs[fmt.Sprintf("doc%02d.txt", i)] = fmt.Sprintf("Invoice_%03d.pdf\n", i)
	}
	writeDocs(t, dir, docs)

	var mu sync.Mutex
	var starts, seen []int
	o := New(Options{
		Workers: 4,
		ProgressStart: func(total int) {
			mu.Lock()
			defer mu.Unlock()
			if len(seen) > 0 {
				t.Error("ProgressStart called after Progress")
			}
			starts = append(starts, total)
		},
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			if total != 12 {
				t.Errorf("progress total = %d, want 12", total)
			}
			seen = append(seen, done)
		},
	})
	if _, err := o.Run(context.Background(), Request{Paths: []string{dir}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(starts) != 1 || starts[0] != 12 {
		t.Errorf("ProgressStart calls = %v, want [12]", starts)
	}
	if len(seen) != 12 {
		t.Fatalf("got %d progress calls, want 12", len(seen))
	}
	for i, done := range seen {
		if done != i+1 {
			t.Fatalf("progress sequence = %v, want 1..12 in order", seen)
		}
	}
}

func TestNewKeepsCallerScanOptions(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{"top.txt": "Invoice_001.pdf\n"})
	sub := filepath.Join(dir, "nested", ".hidden")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeDocs(t, sub, map[string]string{"deep.txt": "Invoice_002.pdf\n"})

	o := New(Options{Scan: scanner.ScanOptions{MaxDepth: -1, IncludeHidden: true}})
	if o.opts.Scan.SymlinkPolicy != scanner.DefaultScanOptions().SymlinkPolicy {
		t.Errorf("SymlinkPolicy = %q, want default", o.opts.Scan.SymlinkPolicy)
	}
	if o.opts.Scan.MaxDepth != -1 || !o.opts.Scan.IncludeHidden {
		t.Errorf("caller scan options lost: %+v", o.opts.Scan)
	}

	summary, err := o.Run(context.Background(), Request{Paths: []string{dir}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2 (nested hidden document included)", summary.SuccessCount)
	}
}

func TestStatus(t *testing.T) {
	dir := sampleInbox(t)
	sub := filepath.Join(dir, "older")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeDocs(t, sub, map[string]string{"c.md": "Report_2023.xlsx\n"})

	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), nil)
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	defer store.Close()

	scan := scanner.DefaultScanOptions()
	scan.MaxDepth = -1
	o := New(Options{Cache: store, Scan: scan})

	if _, err := o.Run(context.Background(), Request{Paths: []string{filepath.Join(dir, "a.txt")}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	status, err := o.Status(context.Background(), Request{Paths: []string{dir}})
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Total != 3 || status.CachedTotal != 1 {
		t.Errorf("Total = %d CachedTotal = %d, want 3 and 1", status.Total, status.CachedTotal)
	}
	if !reflect.DeepEqual(status.Directories, []string{dir, sub}) {
		t.Errorf("Directories = %v", status.Directories)
	}
	if !status.ByDirectory[dir][0].Cached || status.ByDirectory[dir][1].Cached {
		t.Errorf("cache flags = %+v", status.ByDirectory[dir])
	}
}

// Property: merged sources follow submission order regardless of worker count.
func TestRunOrderIndependentOfWorkers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("sources follow submission order", prop.ForAll(
		func(count, workers int) bool {
			docs := make([]InlineDocument, count)
			want := make([]string, count)
			for i := range docs {
				docs[i] = InlineDocument{
					Name: fmt.Sprintf("doc-%d", i),
					Text: fmt.Sprintf("Batch_%03d.csv\nBatch_%03d.csv\n", i, i+1),
				}
				want[i] = docs[i].Name
			}

			summary, err := New(Options{Workers: workers}).Run(context.Background(), Request{Inline: docs})
			if err != nil {
				return false
			}
			return reflect.DeepEqual(summary.Sources, want) &&
				summary.Merged.TotalFound == 2*count &&
				summary.Merged.Validate() == nil
		},
		gen.IntRange(1, 12),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
