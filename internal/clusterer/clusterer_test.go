package clusterer

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"filegroups/internal/model"
	"filegroups/internal/normalizer"
)

func extracted(filenames ...string) []model.ExtractedName {
	out := make([]model.ExtractedName, 0, len(filenames))
	for i, f := range filenames {
		out = append(out, model.NewExtractedName(f, i+1))
	}
	return out
}

func fileNames(g model.PatternGroup) []string {
	out := make([]string, 0, len(g.Files))
	for _, f := range g.Files {
		out = append(out, f.Name)
	}
	return out
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Invoice_XXX.pdf", "Invoice_XXX.pdf", 1},
		{"abcd", "abXY", 0.5},
		{"abc", "abcdef", 0.5},
		{"xyz", "abc", 0},
		{"", "abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestClusterGroupsSequentialNames(t *testing.T) {
	groups := Cluster(extracted("Invoice_001.pdf", "Invoice_002.pdf"), DefaultOptions())

	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1: %+v", len(groups), groups)
	}
	if groups[0].Pattern != "Invoice_XXX.pdf" {
		t.Errorf("Pattern = %q, want Invoice_XXX.pdf", groups[0].Pattern)
	}
	if groups[0].Count != 2 {
		t.Errorf("Count = %d, want 2", groups[0].Count)
	}
}

func TestClusterSingleNameGoesToMiscellaneous(t *testing.T) {
	groups := Cluster(extracted("readme.md"), DefaultOptions())

	if len(groups) != 1 || !groups[0].IsMiscellaneous() || groups[0].Count != 1 {
		t.Fatalf("got %+v, want one Miscellaneous group of 1", groups)
	}
}

func TestClusterEmptyInput(t *testing.T) {
	groups := Cluster(nil, DefaultOptions())
	if len(groups) != 0 {
		t.Errorf("got %d groups, want none", len(groups))
	}
}

func TestClusterJoinsOnSharedPrefix(t *testing.T) {
	groups := Cluster(extracted("Invoice_001.pdf", "Invoice_final.pdf"), DefaultOptions())

	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].Pattern != "Invoice_XXX.pdf" {
		t.Errorf("Pattern = %q, want the first member's pattern", groups[0].Pattern)
	}
	if got := strings.Join(fileNames(groups[0]), ","); got != "Invoice_001.pdf,Invoice_final.pdf" {
		t.Errorf("files = %s", got)
	}
}

func TestClusterSimilarityThreshold(t *testing.T) {
	tests := []struct {
		name        string
		files       []string
		wantPattern string
	}{
		{
			// Identical patterns, different digit prefixes.
			name:        "identical patterns join",
			files:       []string{"10001_Quarterly_Report.pdf", "10002_Quarterly_Report.pdf"},
			wantPattern: "XXX_Quarterly_Report.pdf",
		},
		{
			// 30 of 35 characters in common.
			name:        "above threshold joins",
			files:       []string{"10001_Quarterly_Financial_Report.pdf", "10002_Quarterly_Financial_Reports.pdf"},
			wantPattern: "XXX_Quarterly_Financial_Report.pdf",
		},
		{
			// 20 of 25 characters in common.
			name:        "below threshold stays apart",
			files:       []string{"10001_Quarterly_Report.pdf", "10002_Quarterly_Reports.pdf"},
			wantPattern: model.MiscellaneousPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Cluster(extracted(tt.files...), DefaultOptions())
			if len(groups) != 1 {
				t.Fatalf("got %d groups, want 1: %+v", len(groups), groups)
			}
			if groups[0].Pattern != tt.wantPattern {
				t.Errorf("Pattern = %q, want %q", groups[0].Pattern, tt.wantPattern)
			}
			if groups[0].Count != 2 {
				t.Errorf("Count = %d, want 2", groups[0].Count)
			}
		})
	}
}

func TestClusterOrdersBySizeWithMiscellaneousLast(t *testing.T) {
	names := extracted(
		"A_1.txt", "A_2.txt",
		"alpha.pdf", "beta.doc", "gamma.png",
		"Memo_01.docx", "Memo_02.docx", "Memo_03.docx",
	)

	groups := Cluster(names, DefaultOptions())

	want := []struct {
		pattern string
		count   int
	}{
		{"Memo_XX.docx", 3},
		{"A_X.txt", 2},
		{model.MiscellaneousPattern, 3},
	}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d: %+v", len(groups), len(want), groups)
	}
	for i, w := range want {
		if groups[i].Pattern != w.pattern || groups[i].Count != w.count {
			t.Errorf("groups[%d] = %s (%d), want %s (%d)", i, groups[i].Pattern, groups[i].Count, w.pattern, w.count)
		}
	}
}

func TestClusterVariantChangesDisplayPattern(t *testing.T) {
	names := extracted("Payslip_Smith_2024.pdf", "Payslip_Jones_2024.pdf")

	full := Cluster(names, Options{Variant: normalizer.VariantFull})
	basic := Cluster(names, Options{Variant: normalizer.VariantBasic})

	if full[0].Pattern != "Payslip_VAR_YYYY.pdf" {
		t.Errorf("full pattern = %q", full[0].Pattern)
	}
	if basic[0].Pattern != "Payslip_Smith_YYYY.pdf" {
		t.Errorf("basic pattern = %q", basic[0].Pattern)
	}
	if full[0].Count != 2 || basic[0].Count != 2 {
		t.Errorf("both variants should group by prefix, got %d and %d", full[0].Count, basic[0].Count)
	}
}

func TestDemoteSingletons(t *testing.T) {
	existing := model.NewPatternGroup(model.MiscellaneousPattern, extracted("notes.txt"))
	existing.Description = "unsorted"

	groups := []model.PatternGroup{
		model.NewPatternGroup("Invoice_XXX.pdf", extracted("Invoice_001.pdf", "Invoice_002.pdf")),
		existing,
		model.NewPatternGroup("readme.md", extracted("readme.md")),
	}

	got := DemoteSingletons(groups)

	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2", len(got))
	}
	misc := got[1]
	if !misc.IsMiscellaneous() || misc.Count != 2 {
		t.Fatalf("last group = %s (%d), want Miscellaneous (2)", misc.Pattern, misc.Count)
	}
	if misc.Description != "unsorted" {
		t.Errorf("Description = %q, want it kept", misc.Description)
	}
	if got := strings.Join(fileNames(misc), ","); got != "notes.txt,readme.md" {
		t.Errorf("misc files = %s", got)
	}
}

func genFilename() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("Invoice", "Report", "scan", "Payslip", "memo", "Q", "x"),
		gen.OneConstOf("_", "-", ""),
		gen.IntRange(0, 2030),
		gen.OneConstOf("pdf", "docx", "png"),
	).Map(func(vals []interface{}) string {
		return fmt.Sprintf("%s%s%d.%s", vals[0].(string), vals[1].(string), vals[2].(int), vals[3].(string))
	})
}

// Property: clustering partitions its input. Every name lands in exactly one
// group, counts match file lists, only Miscellaneous may hold a single file,
// and Miscellaneous comes last.
func TestClusterPartitionProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("every name appears in exactly one group", prop.ForAll(
		func(filenames []string) bool {
			groups := Cluster(extracted(filenames...), DefaultOptions())

			seen := make(map[string]int)
			total := 0
			for _, g := range groups {
				for _, f := range g.Files {
					seen[f.Name]++
				}
				total += g.Count
			}
			if total != len(filenames) {
				return false
			}
			want := make(map[string]int)
			for _, f := range filenames {
				want[f]++
			}
			for name, n := range want {
				if seen[name] != n {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genFilename()),
	))

	properties.Property("only Miscellaneous is small and it comes last", prop.ForAll(
		func(filenames []string) bool {
			groups := Cluster(extracted(filenames...), DefaultOptions())
			for i, g := range groups {
				if g.Count != len(g.Files) {
					return false
				}
				if g.IsMiscellaneous() {
					if i != len(groups)-1 {
						return false
					}
					continue
				}
				if g.Count < 2 {
					return false
				}
				if i > 0 && g.Count > groups[i-1].Count {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genFilename()),
	))

	properties.Property("clustering is deterministic", prop.ForAll(
		func(filenames []string) bool {
			a := Cluster(extracted(filenames...), DefaultOptions())
			b := Cluster(extracted(filenames...), DefaultOptions())
			return fmt.Sprint(a) == fmt.Sprint(b)
		},
		gen.SliceOf(genFilename()),
	))

	properties.Property("similarity stays within [0, 1]", prop.ForAll(
		func(a, b string) bool {
			s := Similarity(a, b)
			return s >= 0 && s <= 1 && s == Similarity(b, a)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
