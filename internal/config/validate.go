package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateUnpack(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.TargetDir) == "" {
		return errors.New("paths.target_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateUnpack() error {
	if len(c.Unpack.Commands) == 0 {
		return errors.New("unpack.commands must define at least one extension")
	}
	for ext, tmpl := range c.Unpack.Commands {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("unpack.commands: invalid extension key %q", ext)
		}
		if !strings.Contains(tmpl, "{archive}") || !strings.Contains(tmpl, "{dest}") {
			return fmt.Errorf("unpack.commands[%q]: template must contain {archive} and {dest}", ext)
		}
	}
	for _, pattern := range c.Unpack.ExcludePatterns {
		if _, err := filepath.Match(pattern, "probe"); err != nil {
			return fmt.Errorf("unpack.exclude_patterns: invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateSync() error {
	if !c.Sync.Enabled {
		return nil
	}
	if c.Sync.Remote == "" {
		return errors.New("sync.remote must be set when sync.enabled is true")
	}
	for _, pattern := range c.Sync.ExcludePatterns {
		if _, err := filepath.Match(pattern, "probe"); err != nil {
			return fmt.Errorf("sync.exclude_patterns: invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.Interval <= 0 {
		return errors.New("watch.interval must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
