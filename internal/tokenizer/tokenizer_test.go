package tokenizer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantNames []string
		wantLines []int
	}{
		{
			name:      "one name per line",
			text:      "Invoice_001.pdf\nInvoice_002.pdf",
			wantNames: []string{"Invoice_001.pdf", "Invoice_002.pdf"},
			wantLines: []int{1, 2},
		},
		{
			name:      "case-insensitive dedup keeps first occurrence",
			text:      "Invoice_001.pdf\nsee also\nINVOICE_001.PDF",
			wantNames: []string{"Invoice_001.pdf"},
			wantLines: []int{1},
		},
		{
			name:      "quotes brackets and punctuation delimit names",
			text:      `Files: "report.docx", (scan.PNG); [a1.zip]`,
			wantNames: []string{"report.docx", "scan.PNG", "a1.zip"},
			wantLines: []int{1, 1, 1},
		},
		{
			name:      "compound extension",
			text:      "backup: archive.tar.gz",
			wantNames: []string{"archive.tar.gz"},
			wantLines: []int{1},
		},
		{
			name:      "names never span lines",
			text:      "Quarterly\nReport.pdf",
			wantNames: []string{"Report.pdf"},
			wantLines: []int{2},
		},
		{
			name: "unrecognized extension",
			text: "notes.abc",
		},
		{
			name: "no trailing boundary",
			text: "xreport.pdfx",
		},
		{
			name:      "body at the bound",
			text:      strings.Repeat("a", MaxBodyLength+1) + ".pdf",
			wantNames: []string{strings.Repeat("a", MaxBodyLength+1) + ".pdf"},
			wantLines: []int{1},
		},
		{
			name: "body one past the bound",
			text: strings.Repeat("a", MaxBodyLength+2) + ".pdf",
		},
		{
			name: "body longer than the bound",
			text: strings.Repeat("a", 250) + ".pdf",
		},
		{
			name: "empty text",
			text: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if got == nil {
				t.Fatal("Tokenize returned nil, want empty slice")
			}
			if len(got) != len(tt.wantNames) {
				t.Fatalf("Tokenize() returned %d names (%+v), want %d", len(got), got, len(tt.wantNames))
			}
			for i, n := range got {
				if n.Name != tt.wantNames[i] {
					t.Errorf("names[%d] = %q, want %q", i, n.Name, tt.wantNames[i])
				}
				if n.Line != tt.wantLines[i] {
					t.Errorf("names[%d].Line = %d, want %d", i, n.Line, tt.wantLines[i])
				}
			}
		})
	}
}

func TestTokenizeLowerCasesExtension(t *testing.T) {
	got := Tokenize("SCAN_0001.JPEG")
	if len(got) != 1 {
		t.Fatalf("got %d names, want 1", len(got))
	}
	if got[0].Name != "SCAN_0001.JPEG" {
		t.Errorf("Name = %q, want case preserved", got[0].Name)
	}
	if got[0].Extension != "jpeg" {
		t.Errorf("Extension = %q, want jpeg", got[0].Extension)
	}
}

func TestFindDuplicates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "repeated on separate lines",
			text: "Invoice_001.pdf\nInvoice_001.pdf",
			want: []string{"invoice_001.pdf"},
		},
		{
			name: "case differences count as repeats",
			text: "Plan.docx\nnotes.txt\nPLAN.DOCX\nnotes.md",
			want: []string{"plan.docx"},
		},
		{
			name: "order of first occurrence",
			text: "b.pdf\na.pdf\na.pdf\nb.pdf",
			want: []string{"b.pdf", "a.pdf"},
		},
		{
			name: "no repeats",
			text: "a.pdf\nb.pdf",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindDuplicates(tt.text)
			if got == nil {
				t.Fatal("FindDuplicates returned nil, want empty slice")
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("FindDuplicates() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRecognizedExtension(t *testing.T) {
	for _, ext := range []string{"pdf", "PDF", ".docx", "gz"} {
		if !IsRecognizedExtension(ext) {
			t.Errorf("IsRecognizedExtension(%q) = false", ext)
		}
	}
	if IsRecognizedExtension("abc") {
		t.Error("IsRecognizedExtension(abc) = true")
	}
}

func genStem() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("Invoice", "Report", "scan", "Payslip", "memo"),
		gen.IntRange(0, 999),
	).Map(func(vals []interface{}) string {
		return fmt.Sprintf("%s_%03d", vals[0].(string), vals[1].(int))
	})
}

func genExtension() gopter.Gen {
	return gen.OneConstOf("pdf", "docx", "xlsx", "png", "txt")
}

// Property: every name written on its own line is found exactly once, with
// the line of its first occurrence, and repeats are reported as duplicates.
func TestTokenizeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("each distinct name is emitted once", prop.ForAll(
		func(stems []string, ext string) bool {
			var lines []string
			firstLine := make(map[string]int)
			occurrences := make(map[string]int)
			for i, stem := range stems {
				name := stem + "." + ext
				lines = append(lines, "- "+name+" attached")
				key := strings.ToLower(name)
				if _, ok := firstLine[key]; !ok {
					firstLine[key] = i + 1
				}
				occurrences[key]++
			}
			text := strings.Join(lines, "\n")

			got := Tokenize(text)
			if len(got) != len(firstLine) {
				return false
			}
			for _, n := range got {
				if firstLine[n.Key()] != n.Line {
					return false
				}
			}

			dups := FindDuplicates(text)
			wantDups := 0
			for _, c := range occurrences {
				if c > 1 {
					wantDups++
				}
			}
			return len(dups) == wantDups
		},
		gen.SliceOf(genStem()),
		genExtension(),
	))

	properties.TestingRun(t)
}
