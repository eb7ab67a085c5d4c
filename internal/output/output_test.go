package output

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"filegroups/internal/model"
)

func newTestOutput(verbose, tty bool) (*Output, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return New(Config{Verbose: verbose, Writer: &out, ErrWriter: &errOut, IsTTY: tty}), &out, &errOut
}

func TestVerboseOutputOnlyAppearsWhenEnabled(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    string
	}{
		{"verbose disabled", false, ""},
		{"verbose enabled", true, "scanning inbox\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, out, _ := newTestOutput(tt.verbose, false)
			o.Verbose("scanning %s", "inbox")
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestInfoAndErrorStreams(t *testing.T) {
	o, out, errOut := newTestOutput(false, false)

	o.Info("done\n")
	o.Error("failed: %d", 3)

	if out.String() != "done\n" {
		t.Errorf("stdout = %q", out.String())
	}
	if errOut.String() != "failed: 3\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestNewWithNilWriters(t *testing.T) {
	o := New(Config{})
	if o.Writer() == nil || o.config.ErrWriter == nil {
		t.Error("expected default writers")
	}
}

func TestProgressSuppression(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		tty     bool
		want    bool
	}{
		{"tty", false, true, true},
		{"not a tty", false, false, false},
		{"verbose", true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, out, errOut := newTestOutput(tt.verbose, tt.tty)
			o.StartProgress(3)
			o.UpdateProgress(1, "")
			o.EndProgress()
			if got := errOut.Len() > 0; got != tt.want {
				t.Errorf("progress written = %v, want %v (%q)", got, tt.want, errOut.String())
			}
			if out.Len() != 0 {
				t.Errorf("progress leaked to stdout: %q", out.String())
			}
		})
	}
}

var progressPattern = regexp.MustCompile(`^\r(Analyzing document|Reading) \d+/\d+\.\.\.$`)

// Property: progress updates are carriage-return prefixed "N/M..." lines.
func TestProgressFormatProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("progress line format", prop.ForAll(
		func(total, current int, custom bool) bool {
			o, _, errOut := newTestOutput(false, true)
			o.StartProgress(total)
			errOut.Reset()
			msg := ""
			if custom {
				msg = "Reading"
			}
			o.UpdateProgress(current, msg)
			want := fmt.Sprintf("%d/%d...", current, total)
			return progressPattern.MatchString(errOut.String()) && strings.HasSuffix(errOut.String(), want)
		},
		gen.IntRange(1, 1000),
		gen.IntRange(0, 1000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestEndProgressClearsLine(t *testing.T) {
	o, _, errOut := newTestOutput(false, true)
	o.StartProgress(2)
	o.UpdateProgress(1, "")
	errOut.Reset()
	o.EndProgress()
	if errOut.String() != "\r"+strings.Repeat(" ", 60)+"\r" {
		t.Errorf("EndProgress() wrote %q", errOut.String())
	}

	errOut.Reset()
	o.UpdateProgress(2, "")
	if errOut.Len() != 0 {
		t.Error("UpdateProgress() after EndProgress() should be silent")
	}
}

func sampleResult() *model.ExtractionResult {
	groups := []model.PatternGroup{
		model.NewPatternGroup("IMG_XXX.jpg", []model.ExtractedName{
			model.NewExtractedName("IMG_001.jpg", 1),
			model.NewExtractedName("IMG_002.jpg", 1),
			model.NewExtractedName("IMG_003.jpg", 2),
			model.NewExtractedName("IMG_004.jpg", 2),
		}),
		model.NewPatternGroup(model.MiscellaneousPattern, []model.ExtractedName{
			model.NewExtractedName("readme.md", 3),
		}),
	}
	return model.NewExtractionResult(groups, []string{"img_001.jpg"}, false)
}

func TestPatternTable(t *testing.T) {
	table := PatternTable(sampleResult())
	for _, want := range []string{"Pattern", "IMG_XXX.jpg", "IMG_001.jpg, IMG_002.jpg, IMG_003.jpg (+1 more)", "Miscellaneous", "readme.md"} {
		if !strings.Contains(table, want) {
			t.Errorf("table missing %q:\n%s", want, table)
		}
	}
	if !strings.HasPrefix(table, "╭") {
		t.Errorf("expected rounded table style:\n%s", table)
	}
}

func TestPrintResult(t *testing.T) {
	o, out, _ := newTestOutput(false, false)
	o.PrintResult(sampleResult(), []string{"a.txt", "b.txt"})

	got := out.String()
	for _, want := range []string{"Duplicates: img_001.jpg", "5 file names in 2 groups from 2 documents"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "[duplicate]") {
		t.Error("per-file listing should only appear in verbose mode")
	}
}

func TestPrintResultVerbose(t *testing.T) {
	o, out, _ := newTestOutput(true, false)
	o.PrintResult(sampleResult(), nil)

	got := out.String()
	for _, want := range []string{"IMG_XXX.jpg (4)", "  IMG_001.jpg [duplicate] line 1", "  readme.md line 3"} {
		if !strings.Contains(got, want) {
			t.Errorf("verbose output missing %q:\n%s", want, got)
		}
	}
}

func TestPrintResultEmpty(t *testing.T) {
	o, out, _ := newTestOutput(false, false)
	o.PrintResult(model.NewExtractionResult(nil, nil, false), nil)
	if out.String() != "No file names found.\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestRenderMarkdownPassthroughWithoutTTY(t *testing.T) {
	o, _, _ := newTestOutput(false, false)
	md := "# Report\n\n- `a.pdf`\n"
	if got := o.RenderMarkdown(md); got != md {
		t.Errorf("RenderMarkdown() = %q, want unchanged", got)
	}
}

func TestRenderMarkdownOnTTY(t *testing.T) {
	o, _, _ := newTestOutput(false, true)
	got := o.RenderMarkdown("# Report\n\nInvoice list\n")
	if !strings.Contains(got, "Invoice list") {
		t.Errorf("rendered markdown lost content: %q", got)
	}
}

func TestRunTable(t *testing.T) {
	started := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	table := RunTable([]RunRow{
		{RunID: "run-1", Type: "ANALYZE", Status: "COMPLETED", Started: started, Duration: 1500 * time.Millisecond, Documents: 3, Failed: 1, TotalFound: 12},
		{RunID: "run-2", Type: "WATCH", Status: "IN_PROGRESS", Started: started},
	})
	for _, want := range []string{"run-1", "1.5s", "COMPLETED", "IN_PROGRESS", "-"} {
		if !strings.Contains(table, want) {
			t.Errorf("run table missing %q:\n%s", want, table)
		}
	}
}

func TestKeyValueTable(t *testing.T) {
	table := KeyValueTable([][2]string{{"Entries", "4"}, {"Path", "/tmp/cache.db"}})
	if !strings.Contains(table, "Entries") || !strings.Contains(table, "/tmp/cache.db") {
		t.Errorf("unexpected table:\n%s", table)
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if got := RenderTable(nil, [][]string{{"x"}}, nil); got != "" {
		t.Errorf("RenderTable() = %q, want empty", got)
	}
}
