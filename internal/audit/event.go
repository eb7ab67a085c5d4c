package audit

import (
	"encoding/json"
	"time"
)

// ISO8601Format is the time format used for audit event timestamps.
const ISO8601Format = time.RFC3339Nano

// eventJSON uses pointers for optional fields so omitempty drops them.
type eventJSON struct {
	Timestamp    string            `json:"timestamp"`
	RunID        RunID             `json:"runId"`
	EventType    EventType         `json:"eventType"`
	Status       OperationStatus   `json:"status"`
	SourcePath   *string           `json:"sourcePath,omitempty"`
	FileIdentity *FileIdentity     `json:"fileIdentity,omitempty"`
	ErrorDetails *ErrorDetails     `json:"errorDetails,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// MarshalJSON writes timestamps in UTC ISO 8601 and omits empty optional fields.
func (e AuditEvent) MarshalJSON() ([]byte, error) {
	ej := eventJSON{
		Timestamp:    e.Timestamp.UTC().Format(ISO8601Format),
		RunID:        e.RunID,
		EventType:    e.EventType,
		Status:       e.Status,
		FileIdentity: e.FileIdentity,
		ErrorDetails: e.ErrorDetails,
		Metadata:     e.Metadata,
	}
	if e.SourcePath != "" {
		ej.SourcePath = &e.SourcePath
	}
	return json.Marshal(ej)
}

// UnmarshalJSON parses an event written by MarshalJSON.
func (e *AuditEvent) UnmarshalJSON(data []byte) error {
	var ej eventJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return err
	}

	t, err := time.Parse(ISO8601Format, ej.Timestamp)
	if err != nil {
		return err
	}

	*e = AuditEvent{
		Timestamp:    t,
		RunID:        ej.RunID,
		EventType:    ej.EventType,
		Status:       ej.Status,
		FileIdentity: ej.FileIdentity,
		ErrorDetails: ej.ErrorDetails,
		Metadata:     ej.Metadata,
	}
	if ej.SourcePath != nil {
		e.SourcePath = *ej.SourcePath
	}
	return nil
}

// UnmarshalJSONLine unmarshals a JSON line into an AuditEvent.
func UnmarshalJSONLine(data []byte) (*AuditEvent, error) {
	var e AuditEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
