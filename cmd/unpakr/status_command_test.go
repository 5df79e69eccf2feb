package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStatusReportsCleanTree(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	requireContains(t, out, "== Configuration ==")
	requireContains(t, out, "== Lock ==")
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "== Target tree ==")
	requireContains(t, out, "[OK] free")
	requireContains(t, out, "[OK] found")
	requireContains(t, out, "Pending archives")

	if strings.Contains(out, "[WARN]") || strings.Contains(out, "[ERROR]") {
		t.Fatalf("clean tree should not produce warnings:\n%s", out)
	}
	if strings.Contains(out, "== Recent runs ==") {
		t.Fatalf("history section should be absent when history is disabled:\n%s", out)
	}
}

func TestStatusFlagsPendingArchivesAndHeldLock(t *testing.T) {
	env := setupCLITestEnv(t)

	release := filepath.Join(env.targetDir, "Some.Movie.2021")
	if err := os.MkdirAll(release, 0o755); err != nil {
		t.Fatalf("mkdir release: %v", err)
	}
	if err := os.WriteFile(filepath.Join(release, "movie.rar"), []byte("rar"), 0o644); err != nil {
		t.Fatalf("seed archive: %v", err)
	}
	if err := os.WriteFile(filepath.Join(env.targetDir, ".unpakr-locked"), []byte("held\n"), 0o644); err != nil {
		t.Fatalf("seed lock: %v", err)
	}

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	requireContains(t, out, "[WARN] held:")
	requireContains(t, out, "RELEASE")
	requireContains(t, out, "Some Movie 2021")
	requireContains(t, out, "movie.rar")
}

func TestStatusShowsRecentRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	// History needs its own config; the shared fixture disables it.
	configPath := filepath.Join(env.baseDir, "history.toml")
	content := fmt.Sprintf(`[paths]
target_dir = %q
state_dir = %q
log_dir = %q
`, env.targetDir, filepath.Join(env.baseDir, "state"), filepath.Join(env.baseDir, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	seedCLIArchive(t, env.targetDir, "release", "movie.rar")

	if _, _, err := runCLI(t, []string{"run"}, configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := runCLI(t, []string{"status", "--history", "3"}, configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Recent runs ==")
	requireContains(t, out, "completed")
	requireContains(t, out, "STARTED")
}
