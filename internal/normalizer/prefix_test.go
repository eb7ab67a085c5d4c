package normalizer

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{"letters and underscore", "Invoice_001", "Invoice_"},
		{"letters and hyphen", "invoice-2024", "invoice-"},
		{"letters without separator", "INV001_A", "INV"},
		{"digit code with separator", "2024_report", "2024_"},
		{"upper-case code with separator", "10001_Quarterly", "10001_"},
		{"digits without separator fall back", "2024report", "2024"},
		{"leading underscore falls back", "_draft", "_dra"},
		{"short name falls back to whole name", "12", "12"},
		{"letters only", "readme", "readme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPrefix(tt.base); got != tt.want {
				t.Errorf("ExtractPrefix(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestExtractPrefixFromFilename(t *testing.T) {
	if got := ExtractPrefixFromFilename("Payslip_Smith_2024.pdf"); got != "Payslip_" {
		t.Errorf("ExtractPrefixFromFilename() = %q, want Payslip_", got)
	}
}

// Property: a letter run followed by a separator is always taken as the prefix.
func TestExtractPrefixProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("letter run plus separator is the prefix", prop.ForAll(
		func(word, sep, rest string) bool {
			return ExtractPrefix(word+sep+rest) == word+sep
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.OneConstOf("_", "-"),
		gen.NumString(),
	))

	properties.Property("prefix is a leading substring", prop.ForAll(
		func(base string) bool {
			p := ExtractPrefix(base)
			return len(p) <= len(base) && base[:len(p)] == p
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
