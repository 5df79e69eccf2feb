package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliEnv struct {
	baseDir    string
	configPath string
	targetDir  string
}

// setupCLITestEnv writes an isolated config file, creates the target tree,
// and puts stub unrar/unzip/rsync binaries on PATH.
func setupCLITestEnv(t *testing.T) cliEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))

	target := filepath.Join(base, "downloads")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatalf("mkdir target: %v", err)
	}
	stubBinaries(t, base, "unrar", "unzip", "rsync")

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
target_dir = %q
state_dir = %q
log_dir = %q

[history]
enabled = false
`, target, filepath.Join(base, "state"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return cliEnv{baseDir: base, configPath: configPath, targetDir: target}
}

func stubBinaries(t *testing.T, base string, names ...string) {
	t.Helper()
	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	for _, name := range names {
		script := []byte("#!/bin/sh\nexit 0\n")
		if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// seedCLIArchive drops an archive file under targetDir/subdir and returns its
// path. An empty subdir seeds the target root.
func seedCLIArchive(t *testing.T, targetDir, subdir, name string) string {
	t.Helper()
	dir := targetDir
	if subdir != "" {
		dir = filepath.Join(targetDir, subdir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("archive"), 0o644); err != nil {
		t.Fatalf("seed archive %s: %v", path, err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
