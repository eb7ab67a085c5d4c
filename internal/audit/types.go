// Package audit keeps an append-only JSON Lines log of analysis runs.
// Each run records its start, one event per document, the batch merge and
// its end, so `filegroups history` can show what produced a report.
package audit

import "time"

// RunID is a unique identifier for each run, in UUID v4 format.
type RunID string

// EventType represents the type of audit event.
type EventType string

const (
	// Run lifecycle events
	EventRunStart EventType = "RUN_START"
	EventRunEnd   EventType = "RUN_END"

	// Document events
	EventDocumentAnalyzed EventType = "DOCUMENT_ANALYZED"
	EventDocumentFailed   EventType = "DOCUMENT_FAILED"
	EventResultsMerged    EventType = "RESULTS_MERGED"

	// System events
	EventRotation       EventType = "ROTATION"
	EventLogInitialized EventType = "LOG_INITIALIZED"
)

// OperationStatus represents the outcome of an operation.
type OperationStatus string

const (
	StatusSuccess OperationStatus = "SUCCESS"
	StatusFailure OperationStatus = "FAILURE"
)

// RunStatus represents the status of a run.
type RunStatus string

const (
	RunStatusInProgress  RunStatus = "IN_PROGRESS"
	RunStatusCompleted   RunStatus = "COMPLETED"
	RunStatusFailed      RunStatus = "FAILED"
	RunStatusInterrupted RunStatus = "INTERRUPTED"
)

// RunType represents the command that started a run.
type RunType string

const (
	RunTypeAnalyze  RunType = "ANALYZE"
	RunTypeDiscover RunType = "DISCOVER"
	RunTypeWatch    RunType = "WATCH"
)

// FileIdentity captures the document a result was computed from.
type FileIdentity struct {
	ContentHash string    `json:"contentHash"` // SHA-256 hex string
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"modTime"`
}

// ErrorDetails contains detailed information about an error.
type ErrorDetails struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage"`
	Operation    string `json:"operation"`
}

// AuditEvent is a single audit record.
type AuditEvent struct {
	Timestamp    time.Time         `json:"timestamp"`
	RunID        RunID             `json:"runId"`
	EventType    EventType         `json:"eventType"`
	Status       OperationStatus   `json:"status"`
	SourcePath   string            `json:"sourcePath,omitempty"`
	FileIdentity *FileIdentity     `json:"fileIdentity,omitempty"`
	ErrorDetails *ErrorDetails     `json:"errorDetails,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// DocumentOutcome describes one analyzed document.
type DocumentOutcome struct {
	Source     string
	FileType   string
	Patterns   int
	TotalFound int
	Duplicates int
	CacheHit   bool
	AIEnhanced bool
	Identity   *FileIdentity
}

// RunSummary contains statistics for a completed run.
type RunSummary struct {
	Documents  int `json:"documents"`
	Analyzed   int `json:"analyzed"`
	Failed     int `json:"failed"`
	CacheHits  int `json:"cacheHits"`
	Patterns   int `json:"patterns"`
	TotalFound int `json:"totalFound"`
}

// RunInfo contains metadata and summary for a run.
type RunInfo struct {
	RunID      RunID      `json:"runId"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	Status     RunStatus  `json:"status"`
	RunType    RunType    `json:"runType"`
	AppVersion string     `json:"appVersion"`
	Summary    RunSummary `json:"summary"`
}

// Duration returns how long the run took, or zero while it is in progress.
func (r RunInfo) Duration() time.Duration {
	if r.EndTime == nil {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// AuditConfig holds configuration for the audit system.
type AuditConfig struct {
	LogDirectory string `json:"logDirectory"`
	RotationSize int64  `json:"rotationSizeBytes"` // Rotate when the active log exceeds this size; 0 disables
}

// DefaultAuditConfig returns an AuditConfig rooted at dir.
func DefaultAuditConfig(dir string) AuditConfig {
	return AuditConfig{
		LogDirectory: dir,
		RotationSize: 10 * 1024 * 1024, // 10MB
	}
}
