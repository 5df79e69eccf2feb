package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// A second init without --overwrite refuses to clobber.
	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsBrokenFile(t *testing.T) {
	env := setupCLITestEnv(t)
	broken := filepath.Join(env.baseDir, "broken.toml")
	content := "[paths]\ntarget_dir = \"" + env.targetDir + "\"\nstate_dir = \"" + env.baseDir + "\"\n\n[sync]\nenabled = true\n"
	if err := os.WriteFile(broken, []byte(content), 0o644); err != nil {
		t.Fatalf("write broken config: %v", err)
	}

	_, _, err := runCLI(t, []string{"config", "validate"}, broken)
	if err == nil || !strings.Contains(err.Error(), "sync.remote") {
		t.Fatalf("expected validation failure, got %v", err)
	}
}
