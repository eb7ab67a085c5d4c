// Package export writes extraction results as report files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"filegroups/internal/model"
)

// Format names a report format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatXLSX     Format = "xlsx"
)

// DefaultReportName is the file stem used when a report is written into a directory.
const DefaultReportName = "filegroups-report"

var extensions = map[Format]string{
	FormatMarkdown: ".md",
	FormatJSON:     ".json",
	FormatYAML:     ".yaml",
	FormatCSV:      ".csv",
	FormatXLSX:     ".xlsx",
}

// Formats returns the supported export formats.
func Formats() []Format {
	return []Format{FormatMarkdown, FormatJSON, FormatYAML, FormatCSV, FormatXLSX}
}

// ParseFormat validates a format name. "md" and "yml" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", name)
	}
}

// FormatForPath infers the format from a file extension.
func FormatForPath(path string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for format, e := range extensions {
		if e == ext || (format == FormatYAML && ext == ".yml") {
			return format, true
		}
	}
	return "", false
}

// Extension returns the file extension, with its dot, used for format.
func (f Format) Extension() string {
	return extensions[f]
}

// Binary reports whether the format should not be written to a terminal.
func (f Format) Binary() bool {
	return f == FormatXLSX
}

// Write renders result in format to w. sources names the documents the
// result was built from and may be empty.
func Write(w io.Writer, format Format, result *model.ExtractionResult, sources []string) error {
	if result == nil {
		result = model.NewExtractionResult(nil, nil, false)
	}

	switch format {
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(result, sources))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return writeCSV(w, result)
	case FormatXLSX:
		return writeXLSX(w, result, sources)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// SaveReport writes the report to target. When target is an existing
// directory, a report named DefaultReportName plus the format extension is
// created inside it without overwriting earlier reports. Otherwise target is
// the report file itself. The path written is returned.
func SaveReport(target string, format Format, result *model.ExtractionResult, sources []string) (string, error) {
	path := target
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		path = filepath.Join(target, UniqueName(target, DefaultReportName+format.Extension()))
	} else if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := Write(f, format, result, sources); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s report: %w", format, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}

// Rows flattens result into one row per file, in group order.
func Rows(result *model.ExtractionResult) []Row {
	var rows []Row
	for _, g := range result.Patterns {
		for _, f := range g.Files {
			rows = append(rows, Row{
				Pattern:    g.Pattern,
				Name:       f.Name,
				Extension:  f.Extension,
				Line:       f.Line,
				Confidence: string(f.Confidence),
				Duplicate:  result.IsDuplicate(f.Name),
			})
		}
	}
	return rows
}

// Row is one file of a flattened result.
type Row struct {
	Pattern    string
	Name       string
	Extension  string
	Line       int
	Confidence string
	Duplicate  bool
}

// Header is the column order used by the tabular formats.
var Header = []string{"Pattern", "File Name", "Extension", "Line", "Confidence", "Duplicate"}

// Cells returns the row's values in Header order.
func (r Row) Cells() []string {
	line := ""
	if r.Line > 0 {
		line = strconv.Itoa(r.Line)
	}
	dup := "no"
	if r.Duplicate {
		dup = "yes"
	}
	return []string{r.Pattern, r.Name, r.Extension, line, r.Confidence, dup}
}

func writeCSV(w io.Writer, result *model.ExtractionResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, row := range Rows(result) {
		if err := cw.Write(row.Cells()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
