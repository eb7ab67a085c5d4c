// Package config handles configuration loading and validation for Filegroups.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ConfigErrorType represents the type of configuration error.
type ConfigErrorType string

const (
	FileNotFound    ConfigErrorType = "FILE_NOT_FOUND"
	InvalidFormat   ConfigErrorType = "INVALID_FORMAT"
	ValidationError ConfigErrorType = "VALIDATION_ERROR"
)

// ConfigError represents an error that occurred during configuration loading.
type ConfigError struct {
	Type    ConfigErrorType
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	switch e.Type {
	case FileNotFound:
		return fmt.Sprintf("configuration file not found: %s", e.Path)
	case InvalidFormat:
		return fmt.Sprintf("invalid configuration file %s: %s", e.Path, e.Message)
	case ValidationError:
		return fmt.Sprintf("configuration validation error: %s", e.Message)
	default:
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
}

// Symlink policy values for input.symlink_policy.
const (
	SymlinkPolicyFollow = "follow"
	SymlinkPolicySkip   = "skip"
	SymlinkPolicyError  = "error"
)

// OutputFormats lists the values accepted by output.format.
var OutputFormats = []string{"table", "markdown", "json", "yaml", "csv", "xlsx"}

// EngineConfig selects the normalizer rule set.
type EngineConfig struct {
	Variant string `toml:"variant" json:"variant" yaml:"variant"` // "full" or "basic"
}

// InputConfig controls which documents are read.
type InputConfig struct {
	Directories   []string `toml:"directories" json:"directories" yaml:"directories"`
	ScanDepth     int      `toml:"scan_depth" json:"scanDepth" yaml:"scan_depth"` // 0 = immediate only, -1 = unlimited
	SymlinkPolicy string   `toml:"symlink_policy" json:"symlinkPolicy" yaml:"symlink_policy"`
	MaxFileSizeMB int      `toml:"max_file_size_mb" json:"maxFileSizeMb" yaml:"max_file_size_mb"`
}

// ProcessingConfig bounds batch analysis.
type ProcessingConfig struct {
	Workers int `toml:"workers" json:"workers" yaml:"workers"`
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `toml:"path" json:"path" yaml:"path"`
}

// AuditConfig controls the run history log.
type AuditConfig struct {
	Enabled      bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	LogDirectory string `toml:"log_directory" json:"logDirectory" yaml:"log_directory"`
}

// OutputConfig sets report defaults.
type OutputConfig struct {
	Format    string `toml:"format" json:"format" yaml:"format"`
	Directory string `toml:"directory" json:"directory" yaml:"directory"` // where exports are written; empty means stdout
}

// WatchConfig configures the inbox watcher.
type WatchConfig struct {
	Directories       []string `toml:"directories" json:"directories" yaml:"directories"`
	DebounceSeconds   int      `toml:"debounce_seconds" json:"debounceSeconds" yaml:"debounce_seconds"`
	StableThresholdMS int      `toml:"stable_threshold_ms" json:"stableThresholdMs" yaml:"stable_threshold_ms"`
	IgnorePatterns    []string `toml:"ignore_patterns" json:"ignorePatterns" yaml:"ignore_patterns"`
	MaxPerSecond      float64  `toml:"max_per_second" json:"maxPerSecond" yaml:"max_per_second"`
	LockFile          string   `toml:"lock_file" json:"lockFile" yaml:"lock_file"`
}

// LoggingConfig configures the slog logger.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level" yaml:"level"`
	Format string `toml:"format" json:"format" yaml:"format"`
	File   string `toml:"file" json:"file" yaml:"file"`
}

// Configuration holds all settings for Filegroups.
type Configuration struct {
	Engine     EngineConfig     `toml:"engine" json:"engine" yaml:"engine"`
	Input      InputConfig      `toml:"input" json:"input" yaml:"input"`
	Processing ProcessingConfig `toml:"processing" json:"processing" yaml:"processing"`
	Cache      CacheConfig      `toml:"cache" json:"cache" yaml:"cache"`
	Audit      AuditConfig      `toml:"audit" json:"audit" yaml:"audit"`
	Output     OutputConfig     `toml:"output" json:"output" yaml:"output"`
	Watch      WatchConfig      `toml:"watch" json:"watch" yaml:"watch"`
	Logging    LoggingConfig    `toml:"logging" json:"logging" yaml:"logging"`
}

// Default returns a configuration populated with defaults.
func Default() Configuration {
	return Configuration{
		Engine: EngineConfig{Variant: "full"},
		Input: InputConfig{
			Directories:   []string{},
			ScanDepth:     0,
			SymlinkPolicy: SymlinkPolicySkip,
			MaxFileSizeMB: 50,
		},
		Processing: ProcessingConfig{Workers: 4},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(defaultStateDir("XDG_CACHE_HOME", ".cache"), "cache.db"),
		},
		Audit: AuditConfig{
			Enabled:      true,
			LogDirectory: filepath.Join(defaultStateDir("XDG_STATE_HOME", filepath.Join(".local", "state")), "audit"),
		},
		Output: OutputConfig{Format: "table"},
		Watch: WatchConfig{
			Directories:       []string{},
			DebounceSeconds:   2,
			StableThresholdMS: 1000,
			IgnorePatterns:    []string{},
			MaxPerSecond:      2,
			LockFile:          filepath.Join(defaultStateDir("XDG_CACHE_HOME", ".cache"), "watch.lock"),
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// ApplyDefaults fills zero-valued fields with defaults. Booleans are left alone:
// files decoded by Load start from Default, so an absent key keeps its default.
func (c *Configuration) ApplyDefaults() {
	d := Default()

	if c.Engine.Variant == "" {
		c.Engine.Variant = d.Engine.Variant
	}
	if c.Input.Directories == nil {
		c.Input.Directories = []string{}
	}
	if c.Input.SymlinkPolicy == "" {
		c.Input.SymlinkPolicy = d.Input.SymlinkPolicy
	}
	if c.Input.MaxFileSizeMB == 0 {
		c.Input.MaxFileSizeMB = d.Input.MaxFileSizeMB
	}
	if c.Processing.Workers == 0 {
		c.Processing.Workers = d.Processing.Workers
	}
	if c.Cache.Path == "" {
		c.Cache.Path = d.Cache.Path
	}
	if c.Audit.LogDirectory == "" {
		c.Audit.LogDirectory = d.Audit.LogDirectory
	}
	if c.Output.Format == "" {
		c.Output.Format = d.Output.Format
	}
	if c.Watch.Directories == nil {
		c.Watch.Directories = []string{}
	}
	if c.Watch.DebounceSeconds == 0 {
		c.Watch.DebounceSeconds = d.Watch.DebounceSeconds
	}
	if c.Watch.StableThresholdMS == 0 {
		c.Watch.StableThresholdMS = d.Watch.StableThresholdMS
	}
	if c.Watch.IgnorePatterns == nil {
		c.Watch.IgnorePatterns = []string{}
	}
	if c.Watch.MaxPerSecond == 0 {
		c.Watch.MaxPerSecond = d.Watch.MaxPerSecond
	}
	if c.Watch.LockFile == "" {
		c.Watch.LockFile = d.Watch.LockFile
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

// Validate checks the fields that must be well-formed before anything can run.
// ValidateConfig gives the full list of findings.
func (c *Configuration) Validate() error {
	result := ValidateValues(c)
	if len(result) == 0 {
		return nil
	}
	var msgs []string
	for _, e := range result {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return &ConfigError{Type: ValidationError, Message: strings.Join(msgs, "; ")}
}

// expandPaths resolves "~" in every path field.
func (c *Configuration) expandPaths() error {
	var err error
	expand := func(p *string) {
		if err != nil {
			return
		}
		*p, err = ExpandPath(*p)
	}

	for i := range c.Input.Directories {
		expand(&c.Input.Directories[i])
	}
	for i := range c.Watch.Directories {
		expand(&c.Watch.Directories[i])
	}
	expand(&c.Cache.Path)
	expand(&c.Audit.LogDirectory)
	expand(&c.Output.Directory)
	expand(&c.Watch.LockFile)
	expand(&c.Logging.File)
	return err
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/filegroups/config.toml")
}

// Load reads, decodes and validates a configuration file. The format is chosen
// by extension: .toml, .json, .yaml or .yml.
func Load(filePath string) (*Configuration, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Type: FileNotFound, Path: filePath}
		}
		return nil, &ConfigError{Type: FileNotFound, Path: filePath, Message: err.Error()}
	}

	cfg := Default()
	if err := decode(filePath, data, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.expandPaths(); err != nil {
		return nil, &ConfigError{Type: ValidationError, Message: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads the configuration at filePath, or returns defaults when
// the file does not exist.
func LoadOrDefault(filePath string) (*Configuration, error) {
	cfg, err := Load(filePath)
	if err == nil {
		return cfg, nil
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) && cfgErr.Type == FileNotFound && cfgErr.Message == "" {
		d := Default()
		if err := d.expandPaths(); err != nil {
			return nil, &ConfigError{Type: ValidationError, Message: err.Error()}
		}
		return &d, nil
	}
	return nil, err
}

// Save serializes cfg in the format implied by filePath and writes it,
// creating the parent directory when needed.
func Save(cfg *Configuration, filePath string) error {
	data, err := encode(filePath, cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &ConfigError{
				Type:    ValidationError,
				Message: fmt.Sprintf("failed to create configuration directory: %s", err.Error()),
			}
		}
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return &ConfigError{
			Type:    ValidationError,
			Message: fmt.Sprintf("failed to write configuration file: %s", err.Error()),
		}
	}
	return nil
}

// Marshal renders cfg in the named format: toml, json or yaml.
func Marshal(cfg *Configuration, format string) ([]byte, error) {
	switch format {
	case "toml":
		return toml.Marshal(cfg)
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml":
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unsupported configuration format %q", format)
	}
}

func formatOf(filePath string) (string, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".toml":
		return "toml", nil
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", &ConfigError{
			Type:    InvalidFormat,
			Path:    filePath,
			Message: "unsupported extension (want .toml, .json, .yaml or .yml)",
		}
	}
}

func decode(filePath string, data []byte, cfg *Configuration) error {
	format, err := formatOf(filePath)
	if err != nil {
		return err
	}

	switch format {
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return &ConfigError{Type: InvalidFormat, Path: filePath, Message: err.Error()}
	}
	return nil
}

func encode(filePath string, cfg *Configuration) ([]byte, error) {
	format, err := formatOf(filePath)
	if err != nil {
		return nil, err
	}
	data, err := Marshal(cfg, format)
	if err != nil {
		return nil, &ConfigError{Type: InvalidFormat, Path: filePath, Message: err.Error()}
	}
	return data, nil
}

// ExpandPath expands a leading "~" and cleans the path. Empty stays empty.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Clean(pathValue), nil
}

func defaultStateDir(env, fallback string) string {
	if base, ok := os.LookupEnv(env); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "filegroups")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("~", fallback, "filegroups")
	}
	return filepath.Join(home, fallback, "filegroups")
}
