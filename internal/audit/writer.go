package audit

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoActiveRun is returned when an event is recorded outside a run.
var ErrNoActiveRun = errors.New("no active run: call StartRun first")

// AuditWriter appends events to the active log, flushing and syncing each
// one before returning. Writes fail fast.
type AuditWriter struct {
	mu         sync.Mutex
	file       *os.File
	writer     *bufio.Writer
	logPath    string
	currentRun *RunID
	config     AuditConfig
	now        func() time.Time
}

// NewAuditWriter opens the active log in config.LogDirectory for appending,
// creating the directory and log as needed. A new log starts with a
// LOG_INITIALIZED event.
func NewAuditWriter(config AuditConfig) (*AuditWriter, error) {
	if err := os.MkdirAll(config.LogDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(config.LogDirectory, activeLogName)

	isNewLog := false
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		isNewLog = true
	}

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	w := &AuditWriter{
		file:    file,
		writer:  bufio.NewWriter(file),
		logPath: logPath,
		config:  config,
		now:     func() time.Time { return time.Now().UTC() },
	}

	if isNewLog {
		event := AuditEvent{
			Timestamp: w.now(),
			EventType: EventLogInitialized,
			Status:    StatusSuccess,
			Metadata:  map[string]string{"logPath": logPath},
		}
		if err := w.appendLocked(event); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write LOG_INITIALIZED event: %w", err)
		}
	}

	return w, nil
}

// GenerateRunID returns a new UUID v4 run identifier.
func GenerateRunID() (RunID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return RunID(id.String()), nil
}

// StartRun begins a run and writes its RUN_START event.
func (w *AuditWriter) StartRun(runType RunType, appVersion string) (RunID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	runID, err := GenerateRunID()
	if err != nil {
		return "", fmt.Errorf("failed to generate run ID: %w", err)
	}

	event := AuditEvent{
		Timestamp: w.now(),
		RunID:     runID,
		EventType: EventRunStart,
		Status:    StatusSuccess,
		Metadata: map[string]string{
			"appVersion": appVersion,
			"runType":    string(runType),
		},
	}
	if err := w.writeEventLocked(event); err != nil {
		return "", fmt.Errorf("failed to write RUN_START event: %w", err)
	}

	w.currentRun = &runID
	return runID, nil
}

// WriteEvent writes a single audit event to the log.
func (w *AuditWriter) WriteEvent(event AuditEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeEventLocked(event)
}

// RecordDocument records a DOCUMENT_ANALYZED event.
func (w *AuditWriter) RecordDocument(outcome DocumentOutcome) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == nil {
		return ErrNoActiveRun
	}

	event := AuditEvent{
		Timestamp:    w.now(),
		RunID:        *w.currentRun,
		EventType:    EventDocumentAnalyzed,
		Status:       StatusSuccess,
		SourcePath:   outcome.Source,
		FileIdentity: outcome.Identity,
		Metadata: map[string]string{
			"fileType":   outcome.FileType,
			"patterns":   strconv.Itoa(outcome.Patterns),
			"totalFound": strconv.Itoa(outcome.TotalFound),
			"duplicates": strconv.Itoa(outcome.Duplicates),
			"cacheHit":   strconv.FormatBool(outcome.CacheHit),
			"aiEnhanced": strconv.FormatBool(outcome.AIEnhanced),
		},
	}
	return w.writeEventLocked(event)
}

// RecordFailure records a DOCUMENT_FAILED event.
func (w *AuditWriter) RecordFailure(source, errType, errMsg, operation string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == nil {
		return ErrNoActiveRun
	}

	event := AuditEvent{
		Timestamp:  w.now(),
		RunID:      *w.currentRun,
		EventType:  EventDocumentFailed,
		Status:     StatusFailure,
		SourcePath: source,
		ErrorDetails: &ErrorDetails{
			ErrorType:    errType,
			ErrorMessage: errMsg,
			Operation:    operation,
		},
	}
	return w.writeEventLocked(event)
}

// RecordMerge records the RESULTS_MERGED event for the batch result.
func (w *AuditWriter) RecordMerge(sources, patterns, totalFound int, aiEnhanced bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == nil {
		return ErrNoActiveRun
	}

	event := AuditEvent{
		Timestamp: w.now(),
		RunID:     *w.currentRun,
		EventType: EventResultsMerged,
		Status:    StatusSuccess,
		Metadata: map[string]string{
			"sources":    strconv.Itoa(sources),
			"patterns":   strconv.Itoa(patterns),
			"totalFound": strconv.Itoa(totalFound),
			"aiEnhanced": strconv.FormatBool(aiEnhanced),
		},
	}
	return w.writeEventLocked(event)
}

// EndRun records the run completion status and summary.
func (w *AuditWriter) EndRun(runID RunID, status RunStatus, summary RunSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	event := AuditEvent{
		Timestamp: w.now(),
		RunID:     runID,
		EventType: EventRunEnd,
		Status:    runStatusToOperationStatus(status),
		Metadata: map[string]string{
			"status":     string(status),
			"documents":  strconv.Itoa(summary.Documents),
			"analyzed":   strconv.Itoa(summary.Analyzed),
			"failed":     strconv.Itoa(summary.Failed),
			"cacheHits":  strconv.Itoa(summary.CacheHits),
			"patterns":   strconv.Itoa(summary.Patterns),
			"totalFound": strconv.Itoa(summary.TotalFound),
		},
	}
	if err := w.writeEventLocked(event); err != nil {
		return fmt.Errorf("failed to write RUN_END event: %w", err)
	}

	w.currentRun = nil
	return nil
}

func runStatusToOperationStatus(status RunStatus) OperationStatus {
	switch status {
	case RunStatusFailed, RunStatusInterrupted:
		return StatusFailure
	default:
		return StatusSuccess
	}
}

// writeEventLocked appends event and rotates the log once it is full.
func (w *AuditWriter) writeEventLocked(event AuditEvent) error {
	if err := w.appendLocked(event); err != nil {
		return err
	}
	if err := w.checkAndRotate(); err != nil {
		return fmt.Errorf("failed to check/perform rotation: %w", err)
	}
	return nil
}

func (w *AuditWriter) appendLocked(event AuditEvent) error {
	data, err := event.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync event to disk: %w", err)
	}
	return nil
}

// checkAndRotate closes the active log with a ROTATION event, renames it to
// a timestamped segment and opens a fresh active log.
func (w *AuditWriter) checkAndRotate() error {
	full, err := needsRotation(w.logPath, w.config.RotationSize)
	if err != nil || !full {
		return err
	}

	segment := uniqueSegmentName(filepath.Dir(w.logPath), w.now())

	var runID RunID
	if w.currentRun != nil {
		runID = *w.currentRun
	}
	if err := w.appendLocked(CreateRotationEvent(runID, filepath.Base(w.logPath), segment)); err != nil {
		return err
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close file for rotation: %w", err)
	}
	if err := os.Rename(w.logPath, filepath.Join(filepath.Dir(w.logPath), segment)); err != nil {
		return fmt.Errorf("failed to rename log file during rotation: %w", err)
	}

	file, err := os.OpenFile(w.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open new log file after rotation: %w", err)
	}
	w.file = file
	w.writer = bufio.NewWriter(file)
	return nil
}

// Close flushes any buffered data and closes the audit log file.
func (w *AuditWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close audit log: %w", err)
	}
	return nil
}

// CurrentRunID returns the current run ID, or nil if no run is active.
func (w *AuditWriter) CurrentRunID() *RunID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentRun
}

// LogPath returns the path to the active audit log file.
func (w *AuditWriter) LogPath() string {
	return w.logPath
}
