package rsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Client defines remote sync behaviour.
type Client interface {
	Sync(ctx context.Context, sourceDir, remote string) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithExcludes sets the glob patterns handed to the tool via --exclude.
func WithExcludes(patterns []string) Option {
	return func(c *CLI) {
		c.excludes = append([]string(nil), patterns...)
	}
}

// CLI wraps an rsync-compatible transfer tool.
type CLI struct {
	binary   string
	excludes []string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "rsync"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Sync copies the contents of sourceDir to the remote destination, applying
// the configured exclusion patterns. A non-zero exit status is returned as an
// error carrying the tool's captured standard error.
func (c *CLI) Sync(ctx context.Context, sourceDir, remote string) error {
	if sourceDir == "" {
		return errors.New("source directory required")
	}
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return errors.New("remote destination required")
	}

	args := []string{"-a"}
	for _, pattern := range c.excludes {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			args = append(args, "--exclude="+pattern)
		}
	}
	// Trailing slash: transfer the tree's contents, not the directory itself.
	args = append(args, strings.TrimSuffix(sourceDir, "/")+"/", remote)

	var stderr bytes.Buffer
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("sync to %s: %w: %s", remote, err, detail)
		}
		return fmt.Errorf("sync to %s: %w", remote, err)
	}
	return nil
}

var _ Client = (*CLI)(nil)
