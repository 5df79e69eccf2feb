package deps_test

import (
	"os"
	"path/filepath"
	"testing"

	"unpakr/internal/deps"
)

func TestCheckBinariesReportsMissing(t *testing.T) {
	results := deps.CheckBinaries([]deps.Requirement{
		{Name: "Ghost", Command: "definitely-not-a-real-binary-xyz", Description: "missing on purpose"},
	})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if results[0].Detail == "" {
		t.Fatal("expected detail for missing binary")
	}
}

func TestCheckBinariesFindsStub(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "unrar")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	results := deps.CheckBinaries([]deps.Requirement{
		{Name: "unrar", Command: "unrar", Description: "archive extractor"},
	})
	if !results[0].Available {
		t.Fatalf("expected stub to be found: %+v", results[0])
	}
}

func TestCheckBinariesEmptyCommand(t *testing.T) {
	results := deps.CheckBinaries([]deps.Requirement{
		{Name: "Unset", Command: "   "},
	})
	if results[0].Available {
		t.Fatal("blank command must be unavailable")
	}
	if results[0].Detail != "command not configured" {
		t.Fatalf("unexpected detail: %q", results[0].Detail)
	}
}
