package orchestrator

import (
	"fmt"
	"time"

	"filegroups/internal/audit"
	"filegroups/internal/model"
)

// DocumentResult represents the outcome of analyzing a single document or
// loading a single AI payload.
type DocumentResult struct {
	Source      string
	FileType    string
	Result      *model.ExtractionResult
	CacheHit    bool
	AIEnhanced  bool
	Description string // AI payload summary, if any
	Identity    *audit.FileIdentity
	Error       error
}

// Summary represents the overall results of a run.
type Summary struct {
	RunID          audit.RunID
	Documents      []DocumentResult // Submission order, AI payloads last
	Merged         *model.ExtractionResult
	Sources        []string // Names of the documents that contributed to Merged
	ScanErrors     []error
	TotalDocuments int
	SuccessCount   int
	ErrorCount     int
	CacheHits      int
	Duration       time.Duration
}

func (s *Summary) tally() {
	s.TotalDocuments = len(s.Documents)
	s.SuccessCount, s.ErrorCount, s.CacheHits = 0, 0, 0
	for _, d := range s.Documents {
		switch {
		case d.Error != nil:
			s.ErrorCount++
		case d.CacheHit:
			s.SuccessCount++
			s.CacheHits++
		default:
			s.SuccessCount++
		}
	}
}

// Failed returns the documents that could not be analyzed.
func (s *Summary) Failed() []DocumentResult {
	var failed []DocumentResult
	for _, d := range s.Documents {
		if d.Error != nil {
			failed = append(failed, d)
		}
	}
	return failed
}

// HasErrors returns true if any document or input path failed.
func (s *Summary) HasErrors() bool {
	return s.ErrorCount > 0 || len(s.ScanErrors) > 0
}

// PrintSummary returns a one-line description of the run.
func (s *Summary) PrintSummary() string {
	line := fmt.Sprintf("Analyzed %d documents: %d successful, %d errors", s.TotalDocuments, s.SuccessCount, s.ErrorCount)
	if s.CacheHits > 0 {
		line += fmt.Sprintf(" (%d from cache)", s.CacheHits)
	}
	if s.Merged != nil {
		line += fmt.Sprintf("; %d file names in %d groups", s.Merged.TotalFound, len(s.Merged.Patterns))
	}
	return line
}

// AuditSummary converts the summary into the audit log's run totals.
func (s *Summary) AuditSummary() audit.RunSummary {
	out := audit.RunSummary{
		Documents: s.TotalDocuments,
		Analyzed:  s.SuccessCount,
		Failed:    s.ErrorCount,
		CacheHits: s.CacheHits,
	}
	if s.Merged != nil {
		out.Patterns = len(s.Merged.Patterns)
		out.TotalFound = s.Merged.TotalFound
	}
	return out
}
