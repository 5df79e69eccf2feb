package services_test

import (
	"context"
	"testing"

	"unpakr/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithDirectory(ctx, "/downloads/show")
	ctx = services.WithArchive(ctx, "/downloads/show/payload.rar")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if dir, ok := services.DirectoryFromContext(ctx); !ok || dir != "/downloads/show" {
		t.Fatalf("unexpected directory: %v %v", dir, ok)
	}
	if archive, ok := services.ArchiveFromContext(ctx); !ok || archive != "/downloads/show/payload.rar" {
		t.Fatalf("unexpected archive: %v %v", archive, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithDirectory(ctx, "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.DirectoryFromContext(ctx); ok {
		t.Fatal("expected no directory value")
	}
}
