// Package discovery reports the naming conventions already used by files on
// disk, by running the clusterer over real file names instead of names
// extracted from a document.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"filegroups/internal/clusterer"
	"filegroups/internal/model"
	"filegroups/internal/normalizer"
	"filegroups/internal/tokenizer"
)

// Options configures a discovery scan.
type Options struct {
	MaxDepth      int                // Levels below root to descend (-1 = unlimited)
	IncludeHidden bool               // Include dot files and dot directories
	Variant       normalizer.Variant // Normalizer rule set used for clustering
}

// DefaultOptions returns unlimited depth, hidden files skipped, full variant.
func DefaultOptions() Options {
	return Options{MaxDepth: -1, Variant: normalizer.VariantFull}
}

// FolderSummary describes one immediate subdirectory of the scan root.
type FolderSummary struct {
	Path     string   // Absolute path of the folder
	Files    int      // Recognized files found below it
	Patterns []string // Patterns of its multi-file groups, largest first
}

// Result contains the results of a discovery scan.
type Result struct {
	Root          string
	Result        *model.ExtractionResult // Clustering of every recognized name below root
	Folders       []FolderSummary         // Per-folder breakdown, in lexical order
	ScannedDirs   int                     // Directories visited, root included
	FilesAnalyzed int                     // Files whose extension is recognized
	FilesSkipped  int                     // Files with unrecognized extensions
}

// scanTargetCandidates finds immediate subdirectories of the scan directory.
func scanTargetCandidates(scanDir string, includeHidden bool) ([]string, error) {
	entries, err := os.ReadDir(scanDir)
	if err != nil {
		return nil, err
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() && (includeHidden || !isHidden(entry.Name())) {
			candidates = append(candidates, filepath.Join(scanDir, entry.Name()))
		}
	}
	return candidates, nil
}

// walkState accumulates names while walking a tree.
type walkState struct {
	opts    Options
	dirs    int
	skipped int
	names   []model.ExtractedName
}

// analyzeDirectory walks dir down to the remaining depth and records every
// file whose extension is recognized. Unreadable directories are skipped.
func (s *walkState) analyzeDirectory(dir string, depth int) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != dir && !s.opts.IncludeHidden && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if depth >= 0 && levelsBelow(dir, path) > depth {
				return filepath.SkipDir
			}
			s.dirs++
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if !tokenizer.IsRecognizedExtension(filepath.Ext(d.Name())) {
			s.skipped++
			return nil
		}
		s.names = append(s.names, model.NewExtractedName(d.Name(), 0))
		return nil
	})
}

// Discover clusters the names of the files below root. Names are matched
// case-insensitively: the first occurrence is clustered and a name found in
// more than one place is reported as a duplicate.
func Discover(root string, opts Options) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "discover", Path: abs, Err: fs.ErrInvalid}
	}

	candidates, err := scanTargetCandidates(abs, opts.IncludeHidden)
	if err != nil {
		return nil, err
	}

	result := &Result{Root: abs}
	all := &walkState{opts: opts}

	// Files directly in root count toward the overall result but no folder.
	rootOnly := &walkState{opts: opts}
	rootOnly.analyzeDirectory(abs, 0)
	all.merge(rootOnly)

	if opts.MaxDepth != 0 {
		childDepth := opts.MaxDepth - 1
		if opts.MaxDepth < 0 {
			childDepth = -1
		}
		for _, candidateDir := range candidates {
			folder := &walkState{opts: opts}
			folder.analyzeDirectory(candidateDir, childDepth)
			all.merge(folder)

			unique, _ := dedupe(folder.names)
			groups := clusterer.Cluster(unique, clusterer.Options{Variant: opts.Variant})
			summary := FolderSummary{Path: candidateDir, Files: len(folder.names)}
			for _, g := range groups {
				if !g.IsMiscellaneous() {
					summary.Patterns = append(summary.Patterns, g.Pattern)
				}
			}
			result.Folders = append(result.Folders, summary)
		}
	}

	unique, duplicates := dedupe(all.names)
	groups := clusterer.Cluster(unique, clusterer.Options{Variant: opts.Variant})

	result.Result = model.NewExtractionResult(groups, duplicates, false)
	result.ScannedDirs = all.dirs
	result.FilesAnalyzed = len(all.names)
	result.FilesSkipped = all.skipped
	return result, nil
}

func (s *walkState) merge(other *walkState) {
	s.dirs += other.dirs
	s.skipped += other.skipped
	s.names = append(s.names, other.names...)
}

// dedupe keeps the first occurrence of each case-insensitive name and returns
// the sorted lower-cased names seen more than once.
func dedupe(names []model.ExtractedName) ([]model.ExtractedName, []string) {
	counts := make(map[string]int, len(names))
	unique := make([]model.ExtractedName, 0, len(names))
	for _, n := range names {
		key := n.Key()
		if counts[key] == 0 {
			unique = append(unique, n)
		}
		counts[key]++
	}

	var duplicates []string
	for key, c := range counts {
		if c > 1 {
			duplicates = append(duplicates, key)
		}
	}
	sort.Strings(duplicates)
	return unique, duplicates
}

func levelsBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
