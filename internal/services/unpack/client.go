package unpack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Client defines archive extraction behaviour.
type Client interface {
	Extract(ctx context.Context, ext, archivePath, destDir string) ([]byte, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithCommand binds or overrides the command template for an extension.
func WithCommand(ext, template string) Option {
	return func(c *CLI) {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && template != "" {
			c.commands[ext] = template
		}
	}
}

// CLI invokes the external unpack tools bound to each archive extension.
//
// Templates are whitespace-split argument vectors containing the {archive}
// and {dest} substitution tokens; no shell is involved.
type CLI struct {
	commands map[string]string
}

// NewCLI constructs a client from an extension command table.
func NewCLI(commands map[string]string, opts ...Option) *CLI {
	cli := &CLI{commands: make(map[string]string, len(commands))}
	for ext, template := range commands {
		cli.commands[strings.ToLower(ext)] = template
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Extract runs the unpack command for ext against archivePath, extracting
// into destDir. It returns the tool's captured standard error; a non-zero
// exit status surfaces as a non-nil error alongside that output.
func (c *CLI) Extract(ctx context.Context, ext, archivePath, destDir string) ([]byte, error) {
	if archivePath == "" {
		return nil, errors.New("archive path required")
	}
	if destDir == "" {
		return nil, errors.New("destination directory required")
	}

	template, ok := c.commands[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("no unpack command for %s", ext)
	}

	argv := buildArgv(template, archivePath, destDir)
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty unpack command for %s", ext)
	}

	var stderr bytes.Buffer
	cmd := commandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	cmd.Dir = destDir
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stderr.Bytes(), fmt.Errorf("unpack %s: %w", archivePath, err)
	}
	return stderr.Bytes(), nil
}

func buildArgv(template, archivePath, destDir string) []string {
	fields := strings.Fields(template)
	argv := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.ReplaceAll(field, "{archive}", archivePath)
		field = strings.ReplaceAll(field, "{dest}", destDir)
		argv = append(argv, field)
	}
	return argv
}

var _ Client = (*CLI)(nil)
