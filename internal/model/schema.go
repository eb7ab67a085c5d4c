package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaErrorType represents the kind of schema violation.
type SchemaErrorType string

const (
	InvalidPayload  SchemaErrorType = "INVALID_PAYLOAD"
	InvalidField    SchemaErrorType = "INVALID_FIELD"
	InvariantBroken SchemaErrorType = "INVARIANT_BROKEN"
)

// SchemaError reports a payload or result that does not satisfy the result schema.
type SchemaError struct {
	Type    SchemaErrorType
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	switch e.Type {
	case InvalidPayload:
		return fmt.Sprintf("invalid AI payload: %s", e.Message)
	case InvalidField:
		return fmt.Sprintf("invalid field %s: %s", e.Field, e.Message)
	default:
		if e.Field == "" {
			return fmt.Sprintf("result invariant broken: %s", e.Message)
		}
		return fmt.Sprintf("result invariant broken at %s: %s", e.Field, e.Message)
	}
}

// AIResult is a validated payload from the AI extractor.
type AIResult struct {
	Result       *ExtractionResult
	Summary      string
	DocumentType string
}

type aiFile struct {
	Name       string     `json:"name"`
	Extension  string     `json:"extension"`
	Line       int        `json:"line"`
	Confidence Confidence `json:"confidence"`
}

type aiGroup struct {
	Pattern     string   `json:"pattern"`
	Description string   `json:"description"`
	Files       []aiFile `json:"files"`
}

type aiPayload struct {
	Patterns     []aiGroup `json:"patterns"`
	Duplicates   []string  `json:"duplicates"`
	Summary      string    `json:"summary"`
	DocumentType string    `json:"documentType"`
}

// ParseAIPayload decodes and validates a payload produced by the AI extractor.
// Counts and totals are recomputed from the file lists, missing extensions are
// derived from names, and groups are re-sorted with Miscellaneous last.
// The returned result is marked AI-enhanced.
func ParseAIPayload(data []byte) (*AIResult, error) {
	var payload aiPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &SchemaError{Type: InvalidPayload, Message: err.Error()}
	}
	if payload.Patterns == nil {
		return nil, &SchemaError{Type: InvalidField, Field: "patterns", Message: "missing"}
	}

	groups := make([]PatternGroup, 0, len(payload.Patterns))
	misc := 0
	for i, g := range payload.Patterns {
		field := fmt.Sprintf("patterns[%d]", i)
		if strings.TrimSpace(g.Pattern) == "" {
			return nil, &SchemaError{Type: InvalidField, Field: field + ".pattern", Message: "empty"}
		}
		if g.Pattern == MiscellaneousPattern {
			misc++
			if misc > 1 {
				return nil, &SchemaError{Type: InvalidField, Field: field + ".pattern", Message: "duplicate Miscellaneous group"}
			}
		}

		files := make([]ExtractedName, 0, len(g.Files))
		for j, f := range g.Files {
			fileField := fmt.Sprintf("%s.files[%d]", field, j)
			name := strings.TrimSpace(f.Name)
			if name == "" {
				return nil, &SchemaError{Type: InvalidField, Field: fileField + ".name", Message: "empty"}
			}
			if !f.Confidence.Valid() {
				return nil, &SchemaError{
					Type:    InvalidField,
					Field:   fileField + ".confidence",
					Message: fmt.Sprintf("%q is not one of high, medium, low", f.Confidence),
				}
			}
			ext := strings.ToLower(f.Extension)
			if ext == "" {
				ext = ExtensionOf(name)
			}
			files = append(files, ExtractedName{
				Name:       name,
				Extension:  ext,
				Line:       f.Line,
				Confidence: f.Confidence,
			})
		}

		group := NewPatternGroup(g.Pattern, files)
		group.Description = g.Description
		groups = append(groups, group)
	}

	SortGroups(groups)

	duplicates := make([]string, 0, len(payload.Duplicates))
	seen := make(map[string]bool)
	for _, d := range payload.Duplicates {
		lower := strings.ToLower(strings.TrimSpace(d))
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		duplicates = append(duplicates, lower)
	}

	return &AIResult{
		Result:       NewExtractionResult(groups, duplicates, true),
		Summary:      payload.Summary,
		DocumentType: payload.DocumentType,
	}, nil
}
