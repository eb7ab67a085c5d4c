package export

import (
	"fmt"
	"strings"

	"filegroups/internal/model"
)

// Markdown renders result as a Markdown report: a summary list, one section
// per pattern group and a closing section listing duplicates.
func Markdown(result *model.ExtractionResult, sources []string) string {
	var b strings.Builder

	b.WriteString("# File Name Report\n\n")
	fmt.Fprintf(&b, "- Total files: %d\n", result.TotalFound)
	fmt.Fprintf(&b, "- Pattern groups: %d\n", len(result.Patterns))
	fmt.Fprintf(&b, "- Duplicates: %d\n", len(result.Duplicates))
	if result.AIEnhanced {
		b.WriteString("- AI enhanced: yes\n")
	}
	if len(sources) > 0 {
		quoted := make([]string, len(sources))
		for i, s := range sources {
			quoted[i] = code(s)
		}
		fmt.Fprintf(&b, "- Sources: %s\n", strings.Join(quoted, ", "))
	}

	if result.TotalFound == 0 {
		b.WriteString("\nNo file names found.\n")
		return b.String()
	}

	for _, g := range result.Patterns {
		fmt.Fprintf(&b, "\n## %s (%d)\n\n", code(g.Pattern), g.Count)
		if g.Description != "" {
			b.WriteString(g.Description)
			b.WriteString("\n\n")
		}
		for _, f := range g.Files {
			b.WriteString("- ")
			b.WriteString(code(f.Name))
			var notes []string
			if f.Line > 0 {
				notes = append(notes, fmt.Sprintf("line %d", f.Line))
			}
			if f.Confidence != "" {
				notes = append(notes, string(f.Confidence)+" confidence")
			}
			if result.IsDuplicate(f.Name) {
				notes = append(notes, "duplicate")
			}
			if len(notes) > 0 {
				b.WriteString(" (" + strings.Join(notes, ", ") + ")")
			}
			b.WriteByte('\n')
		}
	}

	if len(result.Duplicates) > 0 {
		b.WriteString("\n## Duplicates\n\n")
		for _, d := range result.Duplicates {
			b.WriteString("- " + code(d) + "\n")
		}
	}

	return b.String()
}

// code wraps s in a backtick span long enough to contain any backticks in s.
func code(s string) string {
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}
