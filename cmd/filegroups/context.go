package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"filegroups/internal/audit"
	"filegroups/internal/cache"
	"filegroups/internal/config"
	"filegroups/internal/logging"
	"filegroups/internal/output"
)

type commandContext struct {
	configFlag *string
	verbose    *bool
	logLevel   *string

	configOnce sync.Once
	config     *config.Configuration
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, verbose *bool, logLevel *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
		logLevel:   logLevel,
	}
}

// ensureConfig loads the configuration once. An explicit --config must
// exist; the default location falls back to built-in defaults.
func (c *commandContext) ensureConfig() (*config.Configuration, error) {
	c.configOnce.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}

		if path != "" {
			expanded, err := config.ExpandPath(path)
			if err != nil {
				c.configErr = fmt.Errorf("resolve config path: %w", err)
				return
			}
			c.configPath = expanded
			c.config, c.configErr = config.Load(expanded)
			return
		}

		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			c.configErr = fmt.Errorf("determine default config path: %w", err)
			return
		}
		c.configPath = defaultPath
		c.config, c.configErr = config.LoadOrDefault(defaultPath)
	})
	return c.config, c.configErr
}

// loggerValue builds the slog logger from the logging section, with
// --log-level taking precedence. Failures fall back to stderr at the
// requested level.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		opts := logging.Options{Level: "warn", Format: "console"}
		if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
			opts.Level = cfg.Logging.Level
			opts.Format = cfg.Logging.Format
			if cfg.Logging.File != "" {
				opts.OutputPaths = []string{"stderr", cfg.Logging.File}
			}
		}
		if c.logLevel != nil && strings.TrimSpace(*c.logLevel) != "" {
			opts.Level = *c.logLevel
		}

		logger, err := logging.New(opts)
		if err != nil {
			opts.OutputPaths = nil
			logger, _ = logging.New(opts)
		}
		c.logger = logging.OrNop(logger)
	})
	return c.logger
}

func (c *commandContext) isVerbose() bool {
	return c.verbose != nil && *c.verbose
}

// newOutput returns a printer bound to the command's streams. Terminal
// styling is only enabled when stdout is the process's own terminal.
func (c *commandContext) newOutput(cmd *cobra.Command) *output.Output {
	cfg := output.Config{Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
	if f, ok := cmd.OutOrStdout().(*os.File); ok && f == os.Stdout {
		cfg = output.DefaultConfig()
		cfg.ErrWriter = cmd.ErrOrStderr()
	}
	cfg.Verbose = c.isVerbose()
	return output.New(cfg)
}

// openCache opens the result cache unless it is disabled.
func (c *commandContext) openCache(disabled bool) (*cache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if disabled || !cfg.Cache.Enabled {
		return nil, nil
	}
	store, err := cache.Open(cfg.Cache.Path, c.loggerValue())
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return store, nil
}

// openAudit opens the run log writer unless auditing is disabled.
func (c *commandContext) openAudit() (*audit.AuditWriter, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Audit.Enabled {
		return nil, nil
	}
	writer, err := audit.NewAuditWriter(audit.DefaultAuditConfig(cfg.Audit.LogDirectory))
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return writer, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
