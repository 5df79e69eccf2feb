package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"unpakr/internal/config"
	"unpakr/internal/history"
	"unpakr/internal/logging"
	"unpakr/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// newLogger builds the configured logger; command output itself stays on
// stdout, the logger carries the pipeline's structured record.
func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.NewFromConfig(cfg)
}

// openHistory opens the run journal when enabled. A nil store is a valid
// result: the pipeline runs without journaling.
func (c *commandContext) openHistory(cfg *config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.Open(cfg)
}

// newRunner assembles a runner plus its optional journal store. The caller
// owns the returned close function.
func (c *commandContext) newRunner(cfg *config.Config, logger *slog.Logger) (*workflow.Runner, func(), error) {
	store, err := c.openHistory(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if store != nil {
			_ = store.Close()
		}
	}
	return workflow.NewRunner(cfg, store, logger), closeFn, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
