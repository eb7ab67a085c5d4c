// Package merger combines per-document extraction results into one batch result.
package merger

import (
	"filegroups/internal/model"
)

// Source is one document's result, labelled with the document it came from.
type Source struct {
	Name   string
	Result *model.ExtractionResult
}

// Merge folds sources, in order, into one aggregate result and returns it with
// the list of source names.
//
// Groups are keyed by their exact pattern string, not by the prefix|pattern key
// the clusterer uses, and clustering is not re-run: two documents whose groups
// normalize to the same pattern string share one merged group even when their
// prefixes differ. The first description seen for a pattern is kept.
// Duplicates are the union of each document's duplicates. The result is
// AI-enhanced when any input is.
func Merge(sources []Source) (*model.ExtractionResult, []string) {
	names := make([]string, 0, len(sources))
	var groups []model.PatternGroup
	index := make(map[string]int)

	var duplicates []string
	seenDuplicates := make(map[string]bool)
	aiEnhanced := false

	for _, src := range sources {
		names = append(names, src.Name)
		if src.Result == nil {
			continue
		}
		aiEnhanced = aiEnhanced || src.Result.AIEnhanced

		for _, g := range src.Result.Patterns {
			if i, ok := index[g.Pattern]; ok {
				groups[i].Add(g.Files...)
				if groups[i].Description == "" {
					groups[i].Description = g.Description
				}
				continue
			}
			merged := model.NewPatternGroup(g.Pattern, g.Files)
			merged.Description = g.Description
			index[g.Pattern] = len(groups)
			groups = append(groups, merged)
		}

		for _, d := range src.Result.Duplicates {
			if seenDuplicates[d] {
				continue
			}
			seenDuplicates[d] = true
			duplicates = append(duplicates, d)
		}
	}

	model.SortGroups(groups)
	return model.NewExtractionResult(groups, duplicates, aiEnhanced), names
}
