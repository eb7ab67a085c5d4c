// Package scanner finds the document files an analysis run reads.
package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ScanErrorType represents the type of scanning error.
type ScanErrorType string

const (
	// DirectoryNotFound indicates the path does not exist or is not a directory.
	DirectoryNotFound ScanErrorType = "DIRECTORY_NOT_FOUND"
	// PermissionDenied indicates insufficient permissions to read the directory.
	PermissionDenied ScanErrorType = "PERMISSION_DENIED"
	// SymlinkError indicates a symlink was encountered with "error" policy.
	SymlinkError ScanErrorType = "SYMLINK_ERROR"
	// UnsupportedFile indicates an explicitly named file has an extension outside the filter.
	UnsupportedFile ScanErrorType = "UNSUPPORTED_FILE"
)

// Symlink policy constants
const (
	SymlinkPolicyFollow = "follow"
	SymlinkPolicySkip   = "skip"
	SymlinkPolicyError  = "error"
)

// ScanError represents an error that occurred during scanning.
type ScanError struct {
	Type ScanErrorType
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	if e.Err == nil {
		return string(e.Type) + ": " + e.Path
	}
	return string(e.Type) + ": " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// ScanOptions configures scanning behavior.
type ScanOptions struct {
	MaxDepth      int      // Maximum depth to scan (0 = immediate only, -1 = unlimited)
	SymlinkPolicy string   // "follow", "skip", or "error"
	Extensions    []string // Accepted extensions with leading dots; empty accepts everything
	IncludeHidden bool     // Include dot files and descend into dot directories
}

// DefaultScanOptions returns the default scan options.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MaxDepth:      0,
		SymlinkPolicy: SymlinkPolicySkip,
	}
}

// FileEntry represents a file found during scanning.
type FileEntry struct {
	Name     string // Filename only
	FullPath string // Absolute path
	Size     int64
}

// Scan enumerates files in the given directory without recursion.
func Scan(directory string) ([]FileEntry, error) {
	return ScanWithOptions(directory, DefaultScanOptions())
}

// ScanWithOptions scans directory with configurable options. Entries are
// returned in lexical order, each directory's files before its subdirectories'.
func ScanWithOptions(directory string, opts ScanOptions) ([]FileEntry, error) {
	info, err := os.Lstat(directory)
	if err != nil {
		return nil, classifyStatError(directory, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		switch opts.SymlinkPolicy {
		case SymlinkPolicyError:
			return nil, &ScanError{
				Type: SymlinkError,
				Path: directory,
				Err:  errors.New("symlink encountered with error policy"),
			}
		case SymlinkPolicySkip:
			return []FileEntry{}, nil
		case SymlinkPolicyFollow:
			info, err = os.Stat(directory)
			if err != nil {
				return nil, classifyStatError(directory, err)
			}
		}
	}

	if !info.IsDir() {
		return nil, &ScanError{
			Type: DirectoryNotFound,
			Path: directory,
			Err:  errors.New("path is not a directory"),
		}
	}

	return scanDirectory(directory, opts, 0)
}

// Collect expands paths into the files to analyze. Directories are scanned
// with opts; files are taken as given but must pass the extension filter.
// A path that fails is reported in errs and the rest are still collected.
// Each file appears once, at its first position.
func Collect(paths []string, opts ScanOptions) (files []FileEntry, errs []error) {
	seen := make(map[string]bool)
	add := func(entry FileEntry) {
		if seen[entry.FullPath] {
			return
		}
		seen[entry.FullPath] = true
		files = append(files, entry)
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, classifyStatError(path, err))
			continue
		}

		if info.IsDir() {
			entries, err := ScanWithOptions(path, opts)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, entry := range entries {
				add(entry)
			}
			continue
		}

		if !opts.accepts(path) {
			errs = append(errs, &ScanError{
				Type: UnsupportedFile,
				Path: path,
				Err:  errors.New("extension is not a supported document type"),
			})
			continue
		}
		add(FileEntry{Name: filepath.Base(path), FullPath: absolute(path), Size: info.Size()})
	}

	return files, errs
}

func scanDirectory(directory string, opts ScanOptions, currentDepth int) ([]FileEntry, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		if os.IsPermission(err) {
			return nil, &ScanError{Type: PermissionDenied, Path: directory, Err: err}
		}
		return nil, err
	}

	var files []FileEntry
	var subdirs []string
	for _, entry := range entries {
		if !opts.IncludeHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		fullPath := filepath.Join(directory, entry.Name())
		info, err := os.Lstat(fullPath)
		if err != nil {
			continue
		}

		if info.Mode()&os.ModeSymlink != 0 {
			switch opts.SymlinkPolicy {
			case SymlinkPolicyError:
				return nil, &ScanError{
					Type: SymlinkError,
					Path: fullPath,
					Err:  errors.New("symlink encountered with error policy"),
				}
			case SymlinkPolicyFollow:
				info, err = os.Stat(fullPath)
				if err != nil {
					continue // broken symlink
				}
			default:
				continue
			}
		}

		if info.IsDir() {
			if opts.MaxDepth == -1 || currentDepth < opts.MaxDepth {
				subdirs = append(subdirs, fullPath)
			}
			continue
		}
		if !info.Mode().IsRegular() || !opts.accepts(entry.Name()) {
			continue
		}

		files = append(files, FileEntry{
			Name:     entry.Name(),
			FullPath: absolute(fullPath),
			Size:     info.Size(),
		})
	}

	for _, sub := range subdirs {
		subFiles, err := scanDirectory(sub, opts, currentDepth+1)
		if err != nil {
			return nil, err
		}
		files = append(files, subFiles...)
	}

	return files, nil
}

func (o ScanOptions) accepts(name string) bool {
	if len(o.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range o.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func classifyStatError(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return &ScanError{Type: DirectoryNotFound, Path: path, Err: err}
	case os.IsPermission(err):
		return &ScanError{Type: PermissionDenied, Path: path, Err: err}
	default:
		return err
	}
}

func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
