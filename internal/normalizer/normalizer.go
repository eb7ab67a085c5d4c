// Package normalizer reduces file names to canonical naming patterns.
//
// Normalize replaces the variable parts of a file's base name (dates, years,
// digit runs, sequence letters and, in the full variant, name segments) with
// placeholders, so Invoice_001.pdf and Invoice_002.pdf both become Invoice_XXX.pdf.
// The rules run in a fixed order and each one sees the output of the previous
// one; Rules exposes that order so each step can be exercised on its own.
package normalizer

import (
	"regexp"
	"strings"
)

// Placeholders substituted into pattern strings.
const (
	PlaceholderDate     = "DATE"
	PlaceholderYear     = "YYYY"
	PlaceholderNumber   = "XXX"
	PlaceholderTwoDigit = "XX"
	PlaceholderSingle   = "X"
	PlaceholderVariable = "VAR"
)

// Variant selects which rule set Normalize applies.
type Variant string

const (
	// VariantFull applies every rule, including the variable-segment collapse.
	VariantFull Variant = "full"
	// VariantBasic stops after the sequence-marker rule.
	VariantBasic Variant = "basic"
)

// Valid reports whether v names a known variant.
func (v Variant) Valid() bool {
	return v == VariantFull || v == VariantBasic
}

// Rule is one ordered rewrite step applied to a base name.
type Rule struct {
	Name  string
	Apply func(base string) string
	// FullOnly marks rules that belong to the full variant only.
	FullOnly bool
}

var (
	isoDatePattern   = regexp.MustCompile(`\d{4}[-_]?\d{2}[-_]?\d{2}`)
	usDatePattern    = regexp.MustCompile(`\d{2}[-_]?\d{2}[-_]?\d{4}`)
	digitRunPattern  = regexp.MustCompile(`\d+`)
	threeDigitsPlus  = regexp.MustCompile(`\d{3,}`)
	twoDigitsPattern = regexp.MustCompile(`\d{2}`)
	oneDigitPattern  = regexp.MustCompile(`\d`)
	variableSegment  = regexp.MustCompile(`([-_])[A-Za-z]+([-_])(DATE|YYYY|XXX|XX|X)$`)
)

// Rules is the ordered rewrite chain. Order is significant: dates must be
// claimed before years, and years before generic digit runs.
var Rules = []Rule{
	{Name: "date", Apply: replaceDates},
	{Name: "year", Apply: replaceYears},
	{Name: "number", Apply: func(s string) string { return threeDigitsPlus.ReplaceAllString(s, PlaceholderNumber) }},
	{Name: "two-digit", Apply: func(s string) string { return twoDigitsPattern.ReplaceAllString(s, PlaceholderTwoDigit) }},
	{Name: "single-digit", Apply: func(s string) string { return oneDigitPattern.ReplaceAllString(s, PlaceholderSingle) }},
	{Name: "sequence-letter", Apply: replaceSequenceLetters},
	{Name: "variable-segment", Apply: collapseVariableSegments, FullOnly: true},
}

// Normalize returns the pattern string for filename using the full variant.
func Normalize(filename string) string {
	return NormalizeVariant(filename, VariantFull)
}

// NormalizeVariant returns the pattern string for filename. Only the base name
// is rewritten; the extension is reattached unchanged.
func NormalizeVariant(filename string, variant Variant) string {
	base, ext := SplitExtension(filename)

	for _, rule := range Rules {
		if rule.FullOnly && variant != VariantFull {
			continue
		}
		base = rule.Apply(base)
	}

	if ext == "" {
		return base
	}
	return base + "." + ext
}

// SplitExtension splits filename at its last dot. The extension is returned
// without the dot; when there is no dot it is empty.
func SplitExtension(filename string) (base, ext string) {
	lastDot := strings.LastIndex(filename, ".")
	if lastDot == -1 {
		return filename, ""
	}
	return filename[:lastDot], filename[lastDot+1:]
}

func replaceDates(s string) string {
	s = isoDatePattern.ReplaceAllString(s, PlaceholderDate)
	return usDatePattern.ReplaceAllString(s, PlaceholderDate)
}

// replaceYears rewrites complete four-digit runs that start with 19 or 20.
// Longer runs are left for the number rule.
func replaceYears(s string) string {
	return digitRunPattern.ReplaceAllStringFunc(s, func(run string) string {
		if len(run) == 4 && (strings.HasPrefix(run, "19") || strings.HasPrefix(run, "20")) {
			return PlaceholderYear
		}
		return run
	})
}

// replaceSequenceLetters turns a lone letter between separators, or after a
// separator at the end of the name, into X (Report-A becomes Report-X).
// Neighbouring markers share separators, so every position is tested against
// the original string rather than rewritten match by match.
func replaceSequenceLetters(s string) string {
	out := []byte(s)
	for i := 1; i < len(s); i++ {
		if !isASCIILetter(s[i]) || !isSeparator(s[i-1]) {
			continue
		}
		if i+1 == len(s) || isSeparator(s[i+1]) {
			out[i] = PlaceholderSingle[0]
		}
	}
	return string(out)
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isSeparator(b byte) bool {
	return b == '-' || b == '_'
}

// collapseVariableSegments replaces the word segment in front of a trailing
// placeholder with VAR, e.g. Payslip_Smith_XXX becomes Payslip_VAR_XXX. Only
// the tail of the base name is rewritten: Smith_Jones_XXX_final is unchanged.
func collapseVariableSegments(s string) string {
	return variableSegment.ReplaceAllString(s, "${1}"+PlaceholderVariable+"${2}${3}")
}
