// Package tokenizer finds file-name-like tokens in unstructured document text.
//
// Tokenize scans line by line and emits each case-insensitive name once, with the
// line of its first occurrence. FindDuplicates scans the whole text as a single
// unit and reports names that occur more than once. Both use the same pattern, so a
// token can only ever be recognized when it is surrounded by a boundary: the start or
// end of the scanned unit, whitespace, a quote, a bracket of any kind, a comma, a
// semicolon or a colon.
package tokenizer

import (
	"regexp"
	"strconv"
	"strings"

	"filegroups/internal/model"
)

// MaxBodyLength bounds the characters that may follow the first character of a
// name before its extension. Keeping the scan bounded means pathological input
// degrades to "no match" instead of runaway matching.
const MaxBodyLength = 200

// delimiters are the boundary characters around a file name.
const delimiters = " \t\r\n\f\v\"'()[]{},;:"

// namePattern matches a leading boundary, a name (group 1) and a trailing boundary.
// Go regexp has no lookahead, so the trailing boundary is consumed by the match and
// callers resume scanning at the end of group 1 instead.
var namePattern = regexp.MustCompile(
	`(?i)(?:^|[\s"'()\[\]{},;:])` +
		`([a-z0-9_][a-z0-9_\-. ()\[\]]{0,` + strconv.Itoa(MaxBodyLength) + `}\.(?:` + strings.Join(Extensions, "|") + `))` +
		`(?:$|[\s"'()\[\]{},;:])`,
)

// Tokenize returns every distinct file name in text in discovery order.
// Names are compared case-insensitively; a repeated name keeps the line number
// of its first occurrence.
func Tokenize(text string) []model.ExtractedName {
	names := []model.ExtractedName{}
	seen := make(map[string]bool)

	for i, line := range strings.Split(text, "\n") {
		for _, candidate := range scan(line) {
			key := strings.ToLower(candidate)
			if seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, model.NewExtractedName(candidate, i+1))
		}
	}

	return names
}

// FindDuplicates returns the lower-cased names that occur two or more times in text,
// in order of first occurrence. Unlike Tokenize, the text is scanned as one unit and
// every match is counted.
func FindDuplicates(text string) []string {
	counts := make(map[string]int)
	var order []string

	for _, candidate := range scan(text) {
		key := strings.ToLower(candidate)
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}

	duplicates := []string{}
	for _, key := range order {
		if counts[key] > 1 {
			duplicates = append(duplicates, key)
		}
	}
	return duplicates
}

// scan returns the cleaned candidates found in unit, left to right, without overlap.
func scan(unit string) []string {
	var candidates []string

	offset := 0
	for offset < len(unit) {
		loc := namePattern.FindStringSubmatchIndex(unit[offset:])
		if loc == nil {
			break
		}
		start, end := offset+loc[2], offset+loc[3]

		if name := clean(unit[start:end]); len(name) > 2 {
			candidates = append(candidates, name)
		}

		// The trailing boundary stays unconsumed so it can open the next match.
		offset = end
	}

	return candidates
}

// clean strips delimiter characters captured at the front of a match and
// surrounding whitespace.
func clean(raw string) string {
	return strings.TrimSpace(strings.TrimLeft(raw, delimiters))
}
