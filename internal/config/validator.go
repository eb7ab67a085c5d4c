package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ValidationSeverity represents the severity of a validation issue.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ConfigValidationError represents a single validation issue.
type ConfigValidationError struct {
	Field    string             // Config field with issue (e.g., "input.directories[0]")
	Message  string             // Human-readable description
	Severity ValidationSeverity // "error" or "warning"
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	Errors   []ConfigValidationError
	Warnings []ConfigValidationError
	Valid    bool // True if no errors (warnings OK)
}

func (r *ValidationResult) add(findings []ConfigValidationError) {
	for _, f := range findings {
		if f.Severity == SeverityError {
			r.Errors = append(r.Errors, f)
		} else {
			r.Warnings = append(r.Warnings, f)
		}
	}
}

// ValidateConfig checks the configuration for errors and returns all findings.
func ValidateConfig(cfg *Configuration) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ConfigValidationError{},
		Warnings: []ConfigValidationError{},
	}

	result.add(ValidateValues(cfg))
	result.add(ValidatePaths(cfg))
	result.add(ValidateDirectoryLists(cfg))

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateValues checks enum values and numeric ranges. It does not touch the
// filesystem, so Load can run it on every configuration it reads.
func ValidateValues(cfg *Configuration) []ConfigValidationError {
	var errs []ConfigValidationError
	fail := func(field, msg string) {
		errs = append(errs, ConfigValidationError{Field: field, Message: msg, Severity: SeverityError})
	}

	if cfg.Engine.Variant != "full" && cfg.Engine.Variant != "basic" {
		fail("engine.variant", fmt.Sprintf("invalid variant %q. Must be \"full\" or \"basic\"", cfg.Engine.Variant))
	}

	switch cfg.Input.SymlinkPolicy {
	case SymlinkPolicyFollow, SymlinkPolicySkip, SymlinkPolicyError:
	default:
		fail("input.symlink_policy", fmt.Sprintf("invalid symlink policy %q. Must be \"follow\", \"skip\", or \"error\"", cfg.Input.SymlinkPolicy))
	}
	if cfg.Input.ScanDepth < -1 {
		fail("input.scan_depth", "scan_depth must be -1 (unlimited) or a non-negative integer")
	}
	if cfg.Input.MaxFileSizeMB < 1 {
		fail("input.max_file_size_mb", "max_file_size_mb must be at least 1")
	}

	if cfg.Processing.Workers < 1 {
		fail("processing.workers", "workers must be at least 1")
	}

	if cfg.Cache.Enabled && strings.TrimSpace(cfg.Cache.Path) == "" {
		fail("cache.path", "path is required when the cache is enabled")
	}
	if cfg.Audit.Enabled && strings.TrimSpace(cfg.Audit.LogDirectory) == "" {
		fail("audit.log_directory", "log_directory is required when auditing is enabled")
	}

	if !slices.Contains(OutputFormats, cfg.Output.Format) {
		fail("output.format", fmt.Sprintf("invalid format %q. Must be one of %s", cfg.Output.Format, strings.Join(OutputFormats, ", ")))
	}

	if cfg.Watch.DebounceSeconds < 0 {
		fail("watch.debounce_seconds", "debounce_seconds must be non-negative")
	}
	if cfg.Watch.StableThresholdMS < 0 {
		fail("watch.stable_threshold_ms", "stable_threshold_ms must be non-negative")
	}
	if cfg.Watch.MaxPerSecond < 0 {
		fail("watch.max_per_second", "max_per_second must be non-negative")
	}
	for i, pattern := range cfg.Watch.IgnorePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			fail(formatField("watch.ignore_patterns", i), fmt.Sprintf("invalid glob %q: %v", pattern, err))
		}
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		fail("logging.level", fmt.Sprintf("invalid level %q", cfg.Logging.Level))
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "console", "json", "text":
	default:
		fail("logging.format", fmt.Sprintf("invalid format %q. Must be \"console\", \"json\", or \"text\"", cfg.Logging.Format))
	}

	return errs
}

// ValidatePaths checks that input and watch directories exist and that the
// output directory is a directory when it exists.
func ValidatePaths(cfg *Configuration) []ConfigValidationError {
	var errs []ConfigValidationError

	for i, dir := range cfg.Input.Directories {
		if err := checkDirectory(dir); err != nil {
			errs = append(errs, ConfigValidationError{
				Field:    formatField("input.directories", i),
				Message:  err.Error(),
				Severity: SeverityError,
			})
		}
	}

	// A watched folder may be mounted later, so a missing one is only a warning.
	for i, dir := range cfg.Watch.Directories {
		if err := checkDirectory(dir); err != nil {
			errs = append(errs, ConfigValidationError{
				Field:    formatField("watch.directories", i),
				Message:  err.Error(),
				Severity: SeverityWarning,
			})
		}
	}

	if cfg.Output.Directory != "" {
		if info, err := os.Stat(cfg.Output.Directory); err == nil && !info.IsDir() {
			errs = append(errs, ConfigValidationError{
				Field:    "output.directory",
				Message:  "path exists but is not a directory: " + cfg.Output.Directory,
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// ValidateDirectoryLists warns about repeated or nested directories, which would
// make the same document be analyzed twice.
func ValidateDirectoryLists(cfg *Configuration) []ConfigValidationError {
	var errs []ConfigValidationError
	lists := []struct {
		field string
		dirs  []string
	}{
		{"input.directories", cfg.Input.Directories},
		{"watch.directories", cfg.Watch.Directories},
	}

	for _, list := range lists {
		for i := 0; i < len(list.dirs); i++ {
			for j := i + 1; j < len(list.dirs); j++ {
				if directoriesOverlap(list.dirs[i], list.dirs[j]) {
					errs = append(errs, ConfigValidationError{
						Field:    formatField(list.field, j),
						Message:  fmt.Sprintf("%q overlaps with %q at index %d", list.dirs[j], list.dirs[i], i),
						Severity: SeverityWarning,
					})
				}
			}
		}
	}

	return errs
}

func checkDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return fmt.Errorf("directory does not exist: %s", dir)
		case os.IsPermission(err):
			return fmt.Errorf("directory is not accessible: %s", dir)
		default:
			return fmt.Errorf("error accessing directory: %v", err)
		}
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir)
	}
	return nil
}

// formatField creates a field reference string for validation errors.
func formatField(name string, index int) string {
	return fmt.Sprintf("%s[%d]", name, index)
}

// directoriesOverlap checks if two directories overlap (one is parent/ancestor of the other).
func directoriesOverlap(dir1, dir2 string) bool {
	clean1 := filepath.Clean(dir1)
	clean2 := filepath.Clean(dir2)

	if clean1 == clean2 {
		return true
	}
	if strings.HasPrefix(clean2, clean1+string(filepath.Separator)) {
		return true
	}
	return strings.HasPrefix(clean1, clean2+string(filepath.Separator))
}
