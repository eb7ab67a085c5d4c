package normalizer

import "regexp"

// PrefixPattern detects the literal lead-in of a base name.
// Pattern: ^([A-Za-z]+[-_]?|[A-Z0-9]+[-_])
// The first alternative takes a run of letters plus at most one separator
// ("Invoice_" from "Invoice_001"); the second covers codes that start with a
// digit and end in a separator ("2024_" from "2024_report").
var PrefixPattern = regexp.MustCompile(`^([A-Za-z]+[-_]?|[A-Z0-9]+[-_])`)

// prefixFallbackLength is how many leading characters are used when the base
// name has no recognizable lead-in.
const prefixFallbackLength = 4

// ExtractPrefix returns the static lead-in of a base name (no extension).
// When PrefixPattern does not match, the first four characters are returned.
func ExtractPrefix(base string) string {
	if match := PrefixPattern.FindString(base); match != "" {
		return match
	}

	runes := []rune(base)
	if len(runes) > prefixFallbackLength {
		runes = runes[:prefixFallbackLength]
	}
	return string(runes)
}

// ExtractPrefixFromFilename strips the extension from filename and returns its prefix.
func ExtractPrefixFromFilename(filename string) string {
	base, _ := SplitExtension(filename)
	return ExtractPrefix(base)
}
