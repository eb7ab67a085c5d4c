package watcher

import (
	"path/filepath"
	"strings"
)

// DefaultIgnorePatterns returns the patterns of partial downloads and editor
// temp files that are never analyzed.
func DefaultIgnorePatterns() []string {
	return []string{
		"*.tmp",
		"*.part",
		"*.download",
		"*.crdownload", // Chrome partial downloads
		"*.partial",
		".~*", // office lock files
		"~$*", // Word owner files
	}
}

// FileFilter decides which paths reach the handler: a path passes when its
// base name matches no ignore pattern, it is not hidden, and its extension
// is in the accepted set.
type FileFilter struct {
	patterns   []string
	extensions map[string]bool
}

// NewFileFilter creates a FileFilter. The default ignore patterns are always
// applied; patterns adds to them. An empty extensions list accepts any
// extension.
func NewFileFilter(patterns, extensions []string) *FileFilter {
	all := append(DefaultIgnorePatterns(), patterns...)
	f := &FileFilter{patterns: all}
	if len(extensions) > 0 {
		f.extensions = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			f.extensions[strings.ToLower(ext)] = true
		}
	}
	return f
}

// ShouldIgnore reports whether path matches an ignore pattern or is hidden.
// Patterns are globs matched against the base name; a pattern starting with
// a dot and holding no wildcard also matches as a case-insensitive suffix.
func (f *FileFilter) ShouldIgnore(path string) bool {
	filename := filepath.Base(path)
	if strings.HasPrefix(filename, ".") && !strings.HasPrefix(filename, ".~") {
		return true
	}

	for _, pattern := range f.patterns {
		if matched, err := filepath.Match(pattern, filename); err == nil && matched {
			return true
		}
		if strings.HasPrefix(pattern, ".") && !strings.Contains(pattern, "*") {
			if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(pattern)) {
				return true
			}
		}
	}
	return false
}

// Accepts reports whether path should be analyzed.
func (f *FileFilter) Accepts(path string) bool {
	if f.ShouldIgnore(path) {
		return false
	}
	if f.extensions == nil {
		return true
	}
	return f.extensions[strings.ToLower(filepath.Ext(path))]
}
