// Package clusterer groups extracted file names into naming-pattern groups.
//
// Each name is keyed by its literal prefix and its normalized pattern. A name
// joins the first existing group, in creation order, whose prefix is equal or
// whose pattern is more than SimilarityThreshold similar; otherwise it starts a
// new group. Groups left with a single file are folded into one Miscellaneous
// group placed last.
package clusterer

import (
	"filegroups/internal/model"
	"filegroups/internal/normalizer"
)

// SimilarityThreshold is the pattern similarity a name must exceed to join a
// group whose prefix differs from its own.
const SimilarityThreshold = 0.85

// Options configures clustering.
type Options struct {
	Variant normalizer.Variant // Normalizer rule set; empty means full
}

// DefaultOptions returns the options used by the analyzer.
func DefaultOptions() Options {
	return Options{Variant: normalizer.VariantFull}
}

// compositeKey is the prefix|pattern identity of a group during single-document clustering.
type compositeKey struct {
	Prefix  string
	Pattern string
}

// bucket is an accumulating group. Buckets are kept in a slice so that
// "first match wins" follows creation order.
type bucket struct {
	key   compositeKey
	files []model.ExtractedName
}

// Cluster groups names into pattern groups sorted by descending size, with
// singletons demoted into a trailing Miscellaneous group. Every input name
// appears in exactly one output group.
func Cluster(names []model.ExtractedName, opts Options) []model.PatternGroup {
	variant := opts.Variant
	if variant == "" {
		variant = normalizer.VariantFull
	}

	var buckets []*bucket
	for _, name := range names {
		base, _ := normalizer.SplitExtension(name.Name)
		key := compositeKey{
			Prefix:  normalizer.ExtractPrefix(base),
			Pattern: normalizer.NormalizeVariant(name.Name, variant),
		}

		target := findBucket(buckets, key)
		if target == nil {
			target = &bucket{key: key}
			buckets = append(buckets, target)
		}
		target.files = append(target.files, name)
	}

	groups := make([]model.PatternGroup, 0, len(buckets))
	for _, b := range buckets {
		groups = append(groups, model.NewPatternGroup(b.key.Pattern, b.files))
	}
	model.SortGroups(groups)

	return DemoteSingletons(groups)
}

// findBucket returns the first bucket sharing key's prefix or holding a pattern
// similar enough to key's pattern.
func findBucket(buckets []*bucket, key compositeKey) *bucket {
	for _, b := range buckets {
		if b.key.Prefix == key.Prefix || Similarity(key.Pattern, b.key.Pattern) > SimilarityThreshold {
			return b
		}
	}
	return nil
}

// DemoteSingletons moves the file of every single-file group into one
// Miscellaneous group appended after the others. An existing Miscellaneous
// group absorbs the demoted files. No Miscellaneous group is produced when
// there is nothing to put in it.
func DemoteSingletons(groups []model.PatternGroup) []model.PatternGroup {
	kept := make([]model.PatternGroup, 0, len(groups))
	var miscFiles []model.ExtractedName
	var miscDescription string

	for _, g := range groups {
		switch {
		case g.IsMiscellaneous():
			miscFiles = append(miscFiles, g.Files...)
			miscDescription = g.Description
		case g.Count == 1:
			miscFiles = append(miscFiles, g.Files...)
		default:
			kept = append(kept, g)
		}
	}

	if len(miscFiles) > 0 {
		misc := model.NewPatternGroup(model.MiscellaneousPattern, miscFiles)
		misc.Description = miscDescription
		kept = append(kept, misc)
	}

	return kept
}
