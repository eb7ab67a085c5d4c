package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"filegroups/internal/model"
)

const (
	summarySheet = "Summary"
	filesSheet   = "Files"
)

// writeXLSX writes a workbook with a Summary sheet (one row per group) and a
// Files sheet (one row per file).
func writeXLSX(w io.Writer, result *model.ExtractionResult, sources []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(filesSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	summary := [][]any{
		{"Total files", result.TotalFound},
		{"Pattern groups", len(result.Patterns)},
		{"Duplicates", len(result.Duplicates)},
		{"AI enhanced", result.AIEnhanced},
		{"Sources", strings.Join(sources, ", ")},
		{},
		{"Pattern", "Count", "Description"},
	}
	for _, g := range result.Patterns {
		summary = append(summary, []any{g.Pattern, g.Count, g.Description})
	}
	if err := writeSheetRows(f, summarySheet, summary); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A5", bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A7", "C7", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "C", "C", 48); err != nil {
		return err
	}

	files := [][]any{toAny(Header)}
	for _, row := range Rows(result) {
		files = append(files, toAny(row.Cells()))
	}
	if err := writeSheetRows(f, filesSheet, files); err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(filesSheet, "A1", lastHeader, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(filesSheet, "A", "B", 32); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheetRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
