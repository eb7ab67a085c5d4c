package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeRun(t *testing.T, w *AuditWriter, runType RunType, docs int, failures int) RunID {
	t.Helper()
	runID, err := w.StartRun(runType, "test")
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	for i := 0; i < docs; i++ {
		if err := w.RecordDocument(DocumentOutcome{Source: "doc.txt", CacheHit: i == 0}); err != nil {
			t.Fatalf("RecordDocument() error = %v", err)
		}
	}
	for i := 0; i < failures; i++ {
		if err := w.RecordFailure("bad.pdf", "READ_FAILED", "corrupt", "extract"); err != nil {
			t.Fatalf("RecordFailure() error = %v", err)
		}
	}
	if err := w.RecordMerge(docs, 1, docs*2, false); err != nil {
		t.Fatalf("RecordMerge() error = %v", err)
	}
	return runID
}

func TestListRunsAndGetRun(t *testing.T) {
	dir := t.TempDir()
	w := newTestWriter(t, AuditConfig{LogDirectory: dir})

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	w.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first := writeRun(t, w, RunTypeAnalyze, 2, 1)
	if err := w.EndRun(first, RunStatusCompleted, RunSummary{Documents: 3, Analyzed: 2, Failed: 1, CacheHits: 1, Patterns: 1, TotalFound: 4}); err != nil {
		t.Fatalf("EndRun() error = %v", err)
	}
	second := writeRun(t, w, RunTypeDiscover, 1, 0)

	reader := NewAuditReader(dir)
	runs, err := reader.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].RunID != first || runs[1].RunID != second {
		t.Errorf("runs not in start order: %s, %s", runs[0].RunID, runs[1].RunID)
	}

	completed := runs[0]
	if completed.Status != RunStatusCompleted || completed.EndTime == nil || completed.Duration() <= 0 {
		t.Errorf("unexpected completed run: %+v", completed)
	}
	if completed.Summary.Failed != 1 || completed.Summary.CacheHits != 1 || completed.Summary.TotalFound != 4 {
		t.Errorf("summary = %+v", completed.Summary)
	}

	open := runs[1]
	if open.Status != RunStatusInProgress || open.RunType != RunTypeDiscover || open.Duration() != 0 {
		t.Errorf("unexpected in-progress run: %+v", open)
	}
	if open.Summary.Analyzed != 1 || open.Summary.Patterns != 1 || open.Summary.TotalFound != 2 {
		t.Errorf("summary derived from events = %+v", open.Summary)
	}

	events, err := reader.GetRun(first)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if len(events) != 6 || events[0].EventType != EventRunStart || events[5].EventType != EventRunEnd {
		t.Errorf("GetRun() returned %d events", len(events))
	}

	latest, err := reader.GetLatestRun()
	if err != nil {
		t.Fatalf("GetLatestRun() error = %v", err)
	}
	if latest.RunID != second {
		t.Errorf("GetLatestRun() = %s, want %s", latest.RunID, second)
	}
}

func TestReaderErrors(t *testing.T) {
	dir := t.TempDir()
	reader := NewAuditReader(dir)

	runs, err := reader.ListRuns()
	if err != nil || len(runs) != 0 {
		t.Fatalf("ListRuns() on empty dir = %v, %v", runs, err)
	}
	if _, err := reader.GetLatestRun(); err == nil {
		t.Error("expected error when there are no runs")
	}
	if _, err := reader.GetRun("missing"); err == nil || !strings.Contains(err.Error(), "run not found") {
		t.Errorf("GetRun() error = %v", err)
	}

	missing := NewAuditReader(filepath.Join(dir, "does-not-exist"))
	if runs, err := missing.ListRuns(); err != nil || len(runs) != 0 {
		t.Errorf("ListRuns() on missing dir = %v, %v", runs, err)
	}
}

func TestReaderRejectsCorruptLine(t *testing.T) {
	dir := t.TempDir()
	content := `{"timestamp":"2024-01-01T00:00:00Z","runId":"r1","eventType":"RUN_START","status":"SUCCESS"}` + "\n" +
		`{"timestamp":"2024-01-01T00:00:01Z","runId":"r1"` + "\n"
	if err := os.WriteFile(filepath.Join(dir, activeLogName), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := NewAuditReader(dir).ListRuns()
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("ListRuns() error = %v, want parse failure on line 2", err)
	}
}

func TestGetAllLogFilesOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		activeLogName,
		"filegroups-audit-20240102-000000-000.jsonl",
		"filegroups-audit-20240101-000000-000.jsonl",
		"unrelated.jsonl",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	files, err := GetAllLogFiles(dir)
	if err != nil {
		t.Fatalf("GetAllLogFiles() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "filegroups-audit-20240101-000000-000.jsonl"),
		filepath.Join(dir, "filegroups-audit-20240102-000000-000.jsonl"),
		filepath.Join(dir, activeLogName),
	}
	if len(files) != len(want) {
		t.Fatalf("GetAllLogFiles() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}
