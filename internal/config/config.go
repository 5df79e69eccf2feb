package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	TargetDir string `toml:"target_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Unpack contains the extension-to-command table and the continuation-volume
// exclusion patterns used during archive detection.
type Unpack struct {
	Enabled         bool              `toml:"enabled"`
	Commands        map[string]string `toml:"commands"`
	ExcludePatterns []string          `toml:"exclude_patterns"`
}

// Sync contains configuration for the external sync tool invocation.
type Sync struct {
	Enabled         bool     `toml:"enabled"`
	Remote          string   `toml:"remote"`
	Binary          string   `toml:"binary"`
	ExcludePatterns []string `toml:"exclude_patterns"`
}

// Cleanup contains configuration for marker-driven removal of extracted output.
type Cleanup struct {
	Enabled bool `toml:"enabled"`
	// KeepMarkers leaves completion markers in place after their listed
	// content has been removed. The default (false) deletes each marker as
	// the last step so a later run extracts the group again.
	KeepMarkers bool `toml:"keep_markers"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunCompleted   bool   `toml:"run_completed"`
	Errors         bool   `toml:"errors"`
}

// History contains configuration for the run journal database.
type History struct {
	Enabled       bool   `toml:"enabled"`
	Path          string `toml:"path"`
	RetentionRuns int    `toml:"retention_runs"`
}

// Watch contains configuration for watch-mode timing.
type Watch struct {
	// Interval is the fallback scan period in seconds when no filesystem
	// events arrive.
	Interval int `toml:"interval"`
	// SettleSeconds is the quiet period after the last filesystem event
	// before a run is triggered.
	SettleSeconds int `toml:"settle_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for unpakr.
//
// Configuration sections by subsystem:
//   - Paths: target tree, state, and log directories
//   - Unpack: extension command table and continuation exclusions
//   - Sync: external sync tool and its exclusion globs
//   - Cleanup: marker-driven removal behaviour
//   - Notifications: ntfy push notification settings
//   - History: run journal database
//   - Watch: watch-mode debounce and polling intervals
//   - Logging: log format and level
//
// LockFileName and MarkerSuffix are reserved filesystem names. They are part
// of the on-disk contract with previous runs and are therefore fixed at
// construction rather than decoded from TOML.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Unpack        Unpack        `toml:"unpack"`
	Sync          Sync          `toml:"sync"`
	Cleanup       Cleanup       `toml:"cleanup"`
	Notifications Notifications `toml:"notifications"`
	History       History       `toml:"history"`
	Watch         Watch         `toml:"watch"`
	Logging       Logging       `toml:"logging"`

	LockFileName string `toml:"-"`
	MarkerSuffix string `toml:"-"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/unpakr/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found; defaults are used otherwise.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("unpakr.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The target
// directory is deliberately not created here: a missing target is a
// misconfiguration that preflight should surface, not silently paper over.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SyncBinary returns the sync executable name.
func (c *Config) SyncBinary() string {
	if strings.TrimSpace(c.Sync.Binary) != "" {
		return c.Sync.Binary
	}
	return defaultSyncBinary
}

// HistoryPath returns the absolute path of the run journal database.
func (c *Config) HistoryPath() string {
	if strings.TrimSpace(c.History.Path) != "" {
		return c.History.Path
	}
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// UnpackExtensions returns the sorted extension keys of the command table.
func (c *Config) UnpackExtensions() []string {
	extensions := make([]string, 0, len(c.Unpack.Commands))
	for ext := range c.Unpack.Commands {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

// UnpackBinaries returns the distinct leading executables of the configured
// unpack command templates, sorted, for dependency checks.
func (c *Config) UnpackBinaries() []string {
	seen := make(map[string]struct{}, len(c.Unpack.Commands))
	binaries := make([]string, 0, len(c.Unpack.Commands))
	for _, tmpl := range c.Unpack.Commands {
		fields := strings.Fields(tmpl)
		if len(fields) == 0 {
			continue
		}
		if _, ok := seen[fields[0]]; ok {
			continue
		}
		seen[fields[0]] = struct{}{}
		binaries = append(binaries, fields[0])
	}
	sort.Strings(binaries)
	return binaries
}

// CreateSample writes the embedded sample configuration to the given path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves ~ prefixes and returns an absolute cleaned path.
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
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
