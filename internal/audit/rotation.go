package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	activeLogName   = "filegroups-audit.jsonl"
	segmentPrefix   = "filegroups-audit-"
	segmentSuffix   = ".jsonl"
	segmentTimeForm = "20060102-150405"
)

// needsRotation reports whether the log at logPath has reached limit bytes.
func needsRotation(logPath string, limit int64) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	info, err := os.Stat(logPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat log file: %w", err)
	}
	return info.Size() >= limit, nil
}

// rotatedFilename names a segment so that lexical order is chronological.
// Format: filegroups-audit-YYYYMMDD-HHMMSS-NNN.jsonl
func rotatedFilename(now time.Time) string {
	return fmt.Sprintf("%s%s-%03d%s", segmentPrefix, now.Format(segmentTimeForm), now.Nanosecond()/1e6, segmentSuffix)
}

// uniqueSegmentName returns a segment name not yet present in dir, moving the
// timestamp forward a millisecond at a time on collision.
func uniqueSegmentName(dir string, now time.Time) string {
	for {
		name := rotatedFilename(now)
		if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
			return name
		}
		now = now.Add(time.Millisecond)
	}
}

// DiscoverSegments returns the rotated segment names in logDir, oldest first.
func DiscoverSegments(logDir string) ([]string, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, segmentPrefix) && strings.HasSuffix(name, segmentSuffix) {
			segments = append(segments, name)
		}
	}
	sort.Strings(segments)
	return segments, nil
}

// GetAllLogFiles returns every log file in chronological order: rotated
// segments first, then the active log. A missing directory yields no files.
func GetAllLogFiles(logDir string) ([]string, error) {
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		return nil, nil
	}

	segments, err := DiscoverSegments(logDir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(segments)+1)
	for _, seg := range segments {
		files = append(files, filepath.Join(logDir, seg))
	}

	activeLog := filepath.Join(logDir, activeLogName)
	if _, err := os.Stat(activeLog); err == nil {
		files = append(files, activeLog)
	}
	return files, nil
}

// CreateRotationEvent creates the ROTATION event written as the last line of
// the segment being closed.
func CreateRotationEvent(runID RunID, oldFile, newFile string) AuditEvent {
	return AuditEvent{
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		EventType: EventRotation,
		Status:    StatusSuccess,
		Metadata: map[string]string{
			"previousFile": oldFile,
			"newFile":      newFile,
		},
	}
}
