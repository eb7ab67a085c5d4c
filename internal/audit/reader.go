package audit

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// AuditReader reads events across the active log and its rotated segments.
type AuditReader struct {
	logDir string
}

// NewAuditReader creates a new AuditReader for the given log directory.
func NewAuditReader(logDir string) *AuditReader {
	return &AuditReader{logDir: logDir}
}

// ListRuns returns every run, oldest first.
func (r *AuditReader) ListRuns() ([]RunInfo, error) {
	events, err := r.readAllEvents()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return extractRunInfos(events), nil
}

// GetRun returns all events for a specific run in log order.
func (r *AuditReader) GetRun(runID RunID) ([]AuditEvent, error) {
	events, err := r.readAllEvents()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	var runEvents []AuditEvent
	for _, event := range events {
		if event.RunID == runID {
			runEvents = append(runEvents, event)
		}
	}
	if len(runEvents) == 0 {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return runEvents, nil
}

// GetRunByID returns the RunInfo for a specific run ID.
func (r *AuditReader) GetRunByID(runID RunID) (*RunInfo, error) {
	events, err := r.GetRun(runID)
	if err != nil {
		return nil, err
	}
	info := buildRunInfo(runID, events)
	return &info, nil
}

// GetLatestRun returns the most recent run by start timestamp.
func (r *AuditReader) GetLatestRun() (*RunInfo, error) {
	runs, err := r.ListRuns()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs found")
	}
	latest := runs[len(runs)-1]
	return &latest, nil
}

func (r *AuditReader) readAllEvents() ([]AuditEvent, error) {
	logFiles, err := GetAllLogFiles(r.logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get log files: %w", err)
	}

	var allEvents []AuditEvent
	for _, logFile := range logFiles {
		events, err := readEventsFromFile(logFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read events from %s: %w", logFile, err)
		}
		allEvents = append(allEvents, events...)
	}
	return allEvents, nil
}

func readEventsFromFile(filePath string) ([]AuditEvent, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(file)
	const maxScanTokenSize = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event, err := UnmarshalJSONLine(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse line %d: %w", lineNum, err)
		}
		events = append(events, *event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}
	return events, nil
}

// extractRunInfos groups events by run, skipping system events without a run.
func extractRunInfos(events []AuditEvent) []RunInfo {
	runEvents := make(map[RunID][]AuditEvent)
	for _, event := range events {
		if event.RunID == "" {
			continue
		}
		runEvents[event.RunID] = append(runEvents[event.RunID], event)
	}

	runs := make([]RunInfo, 0, len(runEvents))
	for runID, events := range runEvents {
		runs = append(runs, buildRunInfo(runID, events))
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartTime.Equal(runs[j].StartTime) {
			return runs[i].RunID < runs[j].RunID
		}
		return runs[i].StartTime.Before(runs[j].StartTime)
	})
	return runs
}

// buildRunInfo derives a RunInfo from a run's events. Counts come from the
// document events; the RUN_END summary overrides them when present.
func buildRunInfo(runID RunID, events []AuditEvent) RunInfo {
	info := RunInfo{
		RunID:   runID,
		Status:  RunStatusInProgress,
		RunType: RunTypeAnalyze,
	}

	for _, event := range events {
		switch event.EventType {
		case EventRunStart:
			info.StartTime = event.Timestamp
			info.AppVersion = event.Metadata["appVersion"]
			if runType, ok := event.Metadata["runType"]; ok && runType != "" {
				info.RunType = RunType(runType)
			}

		case EventDocumentAnalyzed:
			info.Summary.Documents++
			info.Summary.Analyzed++
			if event.Metadata["cacheHit"] == "true" {
				info.Summary.CacheHits++
			}

		case EventDocumentFailed:
			info.Summary.Documents++
			info.Summary.Failed++

		case EventResultsMerged:
			info.Summary.Patterns = atoi(event.Metadata["patterns"])
			info.Summary.TotalFound = atoi(event.Metadata["totalFound"])

		case EventRunEnd:
			endTime := event.Timestamp
			info.EndTime = &endTime
			if status, ok := event.Metadata["status"]; ok {
				info.Status = RunStatus(status)
			}
			info.Summary = parseSummaryFromMetadata(event.Metadata)
		}
	}

	return info
}

func parseSummaryFromMetadata(metadata map[string]string) RunSummary {
	return RunSummary{
		Documents:  atoi(metadata["documents"]),
		Analyzed:   atoi(metadata["analyzed"]),
		Failed:     atoi(metadata["failed"]),
		CacheHits:  atoi(metadata["cacheHits"]),
		Patterns:   atoi(metadata["patterns"]),
		TotalFound: atoi(metadata["totalFound"]),
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
