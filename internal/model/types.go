// Package model defines the extraction result schema shared by every Filegroups component.
// The tokenizer and clusterer produce it, the merger combines it, and the exporters,
// cache and AI payload validator consume it.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// MiscellaneousPattern is the display pattern of the catch-all group that holds
// every file whose own group would otherwise contain a single entry.
const MiscellaneousPattern = "Miscellaneous"

// Confidence is the certainty attached to a file name by the AI extractor.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is one of the recognized confidence levels.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	default:
		return false
	}
}

// ExtractedName is one recognized file-name token.
type ExtractedName struct {
	Name       string     `json:"name" yaml:"name"`                                 // Cleaned, case-preserved token
	Extension  string     `json:"extension" yaml:"extension"`                       // Lower-cased text after the final dot
	Line       int        `json:"line,omitempty" yaml:"line,omitempty"`             // 1-based line of first occurrence
	Confidence Confidence `json:"confidence,omitempty" yaml:"confidence,omitempty"` // AI results only
}

// NewExtractedName builds an ExtractedName, deriving the extension from name.
func NewExtractedName(name string, line int) ExtractedName {
	return ExtractedName{
		Name:      name,
		Extension: ExtensionOf(name),
		Line:      line,
	}
}

// Key returns the case-insensitive identity of the name.
func (n ExtractedName) Key() string {
	return strings.ToLower(n.Name)
}

// ExtensionOf returns the lower-cased substring after the last dot in name,
// or an empty string when name has no dot.
func ExtensionOf(name string) string {
	lastDot := strings.LastIndex(name, ".")
	if lastDot == -1 {
		return ""
	}
	return strings.ToLower(name[lastDot+1:])
}

// PatternGroup is a cluster of names sharing a naming convention.
type PatternGroup struct {
	Pattern     string          `json:"pattern" yaml:"pattern"`
	Files       []ExtractedName `json:"files" yaml:"files"`
	Count       int             `json:"count" yaml:"count"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
}

// NewPatternGroup creates a group holding a copy of files.
func NewPatternGroup(pattern string, files []ExtractedName) PatternGroup {
	g := PatternGroup{Pattern: pattern, Files: make([]ExtractedName, 0, len(files))}
	g.Add(files...)
	return g
}

// Add appends files to the group and keeps Count in step with Files.
func (g *PatternGroup) Add(files ...ExtractedName) {
	g.Files = append(g.Files, files...)
	g.Count = len(g.Files)
}

// IsMiscellaneous reports whether g is the catch-all group.
func (g PatternGroup) IsMiscellaneous() bool {
	return g.Pattern == MiscellaneousPattern
}

// ExtractionResult is the engine output for one document or one merged batch.
type ExtractionResult struct {
	TotalFound int            `json:"totalFound" yaml:"totalFound"`
	Patterns   []PatternGroup `json:"patterns" yaml:"patterns"`
	Duplicates []string       `json:"duplicates" yaml:"duplicates"`
	AIEnhanced bool           `json:"aiEnhanced" yaml:"aiEnhanced"`
}

// NewExtractionResult assembles a result from already ordered groups.
// Nil slices are replaced with empty ones so serialized output always
// carries arrays, and counts are recomputed.
func NewExtractionResult(patterns []PatternGroup, duplicates []string, aiEnhanced bool) *ExtractionResult {
	if patterns == nil {
		patterns = []PatternGroup{}
	}
	if duplicates == nil {
		duplicates = []string{}
	}
	r := &ExtractionResult{
		Patterns:   patterns,
		Duplicates: duplicates,
		AIEnhanced: aiEnhanced,
	}
	r.Recount()
	return r
}

// Recount recomputes every group count and the total.
func (r *ExtractionResult) Recount() {
	total := 0
	for i := range r.Patterns {
		r.Patterns[i].Count = len(r.Patterns[i].Files)
		total += r.Patterns[i].Count
	}
	r.TotalFound = total
}

// IsDuplicate reports whether name occurred more than once in the source text.
func (r *ExtractionResult) IsDuplicate(name string) bool {
	lower := strings.ToLower(name)
	for _, d := range r.Duplicates {
		if d == lower {
			return true
		}
	}
	return false
}

// Miscellaneous returns the catch-all group, or nil when there is none.
func (r *ExtractionResult) Miscellaneous() *PatternGroup {
	for i := range r.Patterns {
		if r.Patterns[i].IsMiscellaneous() {
			return &r.Patterns[i]
		}
	}
	return nil
}

// SortGroups orders groups by descending count. Ties keep their relative
// order and the Miscellaneous group, if present, is moved last.
func SortGroups(groups []PatternGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		mi, mj := groups[i].IsMiscellaneous(), groups[j].IsMiscellaneous()
		if mi != mj {
			return mj
		}
		return groups[i].Count > groups[j].Count
	})
}

// Validate checks the structural invariants of a result: counts match the
// file lists, the total matches the sum, and there is at most one
// Miscellaneous group.
func (r *ExtractionResult) Validate() error {
	total := 0
	misc := 0
	for i, g := range r.Patterns {
		if g.Count != len(g.Files) {
			return &SchemaError{
				Type:    InvariantBroken,
				Field:   fmt.Sprintf("patterns[%d].count", i),
				Message: fmt.Sprintf("count %d does not match %d files", g.Count, len(g.Files)),
			}
		}
		if g.IsMiscellaneous() {
			misc++
		}
		total += g.Count
	}
	if misc > 1 {
		return &SchemaError{Type: InvariantBroken, Field: "patterns", Message: "more than one Miscellaneous group"}
	}
	if total != r.TotalFound {
		return &SchemaError{
			Type:    InvariantBroken,
			Field:   "totalFound",
			Message: fmt.Sprintf("totalFound %d does not match sum of counts %d", r.TotalFound, total),
		}
	}
	return nil
}
