// Package analyzer runs the single-document extraction pipeline: tokenize the
// text, cluster the names into pattern groups and detect repeated names.
package analyzer

import (
	"filegroups/internal/clusterer"
	"filegroups/internal/model"
	"filegroups/internal/normalizer"
	"filegroups/internal/tokenizer"
)

// Options configures a single analysis.
type Options struct {
	Variant normalizer.Variant
}

// DefaultOptions returns options using the full normalizer variant.
func DefaultOptions() Options {
	return Options{Variant: normalizer.VariantFull}
}

// Analyze extracts and groups the file names mentioned in text. It is total:
// empty or name-free text yields an empty result with no groups. Running it
// twice on the same text yields identical results.
func Analyze(text string, opts Options) *model.ExtractionResult {
	names := tokenizer.Tokenize(text)
	groups := clusterer.Cluster(names, clusterer.Options{Variant: opts.Variant})
	duplicates := tokenizer.FindDuplicates(text)

	return model.NewExtractionResult(groups, duplicates, false)
}
