package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"filegroups/internal/model"
)

// maxExamples is how many file names a table row shows before eliding.
const maxExamples = 3

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// RenderTable renders rows under headers as a rounded table.
func RenderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// PatternTable renders one row per pattern group: the pattern, its count,
// a few example names and the description.
func PatternTable(result *model.ExtractionResult) string {
	rows := make([][]string, 0, len(result.Patterns))
	for _, g := range result.Patterns {
		rows = append(rows, []string{g.Pattern, fmt.Sprintf("%d", g.Count), examples(g), g.Description})
	}
	return RenderTable(
		[]string{"Pattern", "Count", "Examples", "Description"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func examples(g model.PatternGroup) string {
	names := make([]string, 0, maxExamples)
	for i, f := range g.Files {
		if i == maxExamples {
			break
		}
		names = append(names, f.Name)
	}
	s := strings.Join(names, ", ")
	if extra := len(g.Files) - len(names); extra > 0 {
		s += fmt.Sprintf(" (+%d more)", extra)
	}
	return s
}

// PrintResult writes the pattern table followed by duplicate and total lines.
// In verbose mode every file of every group is listed after the table.
func (o *Output) PrintResult(result *model.ExtractionResult, sources []string) {
	o.clearProgressLine()
	w := o.config.Writer

	if result == nil || result.TotalFound == 0 {
		fmt.Fprintln(w, o.theme.Dim.Render("No file names found."))
		return
	}

	fmt.Fprintln(w, PatternTable(result))

	if o.config.Verbose {
		for _, g := range result.Patterns {
			style := o.theme.Pattern
			if g.IsMiscellaneous() {
				style = o.theme.Misc
			}
			fmt.Fprintf(w, "\n%s %s\n", style.Render(g.Pattern), o.theme.Count.Render(fmt.Sprintf("(%d)", g.Count)))
			for _, f := range g.Files {
				name := o.theme.File.Render(f.Name)
				if result.IsDuplicate(f.Name) {
					name += " " + o.theme.Duplicate.Render("[duplicate]")
				}
				if f.Line > 0 {
					name += " " + o.theme.Dim.Render(fmt.Sprintf("line %d", f.Line))
				}
				fmt.Fprintf(w, "  %s\n", name)
			}
		}
		fmt.Fprintln(w)
	}

	if len(result.Duplicates) > 0 {
		fmt.Fprintf(w, "%s %s\n", o.theme.Duplicate.Render("Duplicates:"), strings.Join(result.Duplicates, ", "))
	}

	summary := fmt.Sprintf("%d file names in %d groups", result.TotalFound, len(result.Patterns))
	if len(sources) > 1 {
		summary += fmt.Sprintf(" from %d documents", len(sources))
	}
	if result.AIEnhanced {
		summary += " (AI enhanced)"
	}
	fmt.Fprintln(w, o.theme.Summary.Render(summary))
}

// RenderMarkdown renders md for the terminal with glamour. Without a
// terminal, or if rendering fails, md is returned unchanged.
func (o *Output) RenderMarkdown(md string) string {
	if !o.config.IsTTY {
		return md
	}

	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if o.config.Width > 0 {
		opts = append(opts, glamour.WithWordWrap(o.config.Width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	rendered, err := r.Render(md)
	if err != nil {
		return md
	}
	return rendered
}

// RunRow is one line of the run history table.
type RunRow struct {
	RunID      string
	Type       string
	Status     string
	Started    time.Time
	Duration   time.Duration
	Documents  int
	Failed     int
	TotalFound int
}

// RunTable renders the run history.
func RunTable(runs []RunRow) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		duration := "-"
		if r.Duration > 0 {
			duration = r.Duration.Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			r.RunID,
			r.Type,
			r.Status,
			r.Started.Local().Format("2006-01-02 15:04:05"),
			duration,
			fmt.Sprintf("%d", r.Documents),
			fmt.Sprintf("%d", r.Failed),
			fmt.Sprintf("%d", r.TotalFound),
		})
	}
	return RenderTable(
		[]string{"Run", "Type", "Status", "Started", "Duration", "Docs", "Failed", "Files"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}

// KeyValueTable renders label/value pairs, for cache statistics and the like.
func KeyValueTable(pairs [][2]string) string {
	rows := make([][]string, len(pairs))
	for i, p := range pairs {
		rows[i] = []string{p[0], p[1]}
	}
	return RenderTable([]string{"Field", "Value"}, rows, nil)
}
