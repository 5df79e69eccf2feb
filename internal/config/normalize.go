package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeUnpack(); err != nil {
		return err
	}
	if err := c.normalizeSync(); err != nil {
		return err
	}
	c.normalizeNotifications()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeWatch()
	c.normalizeLogging()

	// Reserved names are never decoded from TOML; repopulate them for
	// configs built without Default().
	if c.LockFileName == "" {
		c.LockFileName = DefaultLockFileName
	}
	if c.MarkerSuffix == "" {
		c.MarkerSuffix = DefaultMarkerSuffix
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.TargetDir, err = ExpandPath(c.Paths.TargetDir); err != nil {
		return fmt.Errorf("paths.target_dir: %w", err)
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeUnpack() error {
	if len(c.Unpack.Commands) == 0 {
		c.Unpack.Commands = defaultUnpackCommands()
	}
	normalized := make(map[string]string, len(c.Unpack.Commands))
	for ext, tmpl := range c.Unpack.Commands {
		key := strings.ToLower(strings.TrimSpace(ext))
		if key != "" && !strings.HasPrefix(key, ".") {
			key = "." + key
		}
		normalized[key] = strings.TrimSpace(tmpl)
	}
	c.Unpack.Commands = normalized

	if len(c.Unpack.ExcludePatterns) == 0 {
		c.Unpack.ExcludePatterns = defaultExcludePatterns()
	}
	for i, pattern := range c.Unpack.ExcludePatterns {
		c.Unpack.ExcludePatterns[i] = strings.ToLower(strings.TrimSpace(pattern))
	}
	return nil
}

func (c *Config) normalizeSync() error {
	c.Sync.Remote = strings.TrimSpace(c.Sync.Remote)
	c.Sync.Binary = strings.TrimSpace(c.Sync.Binary)
	if c.Sync.Binary == "" {
		c.Sync.Binary = defaultSyncBinary
	}
	if len(c.Sync.ExcludePatterns) == 0 {
		c.Sync.ExcludePatterns = defaultSyncExcludePatterns()
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		c.Notifications.NtfyTopic = os.Getenv("UNPAKR_NTFY_TOPIC")
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) != "" {
		expanded, err := ExpandPath(c.History.Path)
		if err != nil {
			return fmt.Errorf("history.path: %w", err)
		}
		c.History.Path = expanded
	}
	if c.History.RetentionRuns <= 0 {
		c.History.RetentionRuns = defaultRetentionRuns
	}
	return nil
}

func (c *Config) normalizeWatch() {
	if c.Watch.Interval <= 0 {
		c.Watch.Interval = defaultWatchInterval
	}
	if c.Watch.SettleSeconds < 0 {
		c.Watch.SettleSeconds = defaultWatchSettle
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
