package cleanup_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"unpakr/internal/cleanup"
	"unpakr/internal/logging"
	"unpakr/internal/marker"
)

func newEngine(keepMarkers bool) (*cleanup.Engine, *marker.Store) {
	store := marker.NewStore(".unpakr-unpacked")
	return cleanup.NewEngine(store, keepMarkers, logging.NewNop()), store
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCleanTreeRemovesListedPathsAndMarker(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "show")
	write(t, filepath.Join(sub, "show.rar"), "archive")
	write(t, filepath.Join(sub, "show.mkv"), "payload")
	write(t, filepath.Join(sub, "sample", "clip.mkv"), "payload")

	engine, store := newEngine(false)
	if err := store.Write(sub, "show", []string{"show.mkv", "sample"}); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	result, err := engine.CleanTree(context.Background(), root)
	if err != nil {
		t.Fatalf("CleanTree returned error: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 removals, got %v", result.Removed)
	}
	if len(result.MarkersRemoved) != 1 {
		t.Fatalf("expected marker removal, got %v", result.MarkersRemoved)
	}

	for _, gone := range []string{
		filepath.Join(sub, "show.mkv"),
		filepath.Join(sub, "sample"),
		store.PathFor(sub, "show"),
	} {
		if _, err := os.Lstat(gone); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err = %v", gone, err)
		}
	}

	// The archive itself is not listed, so it survives.
	if _, err := os.Stat(filepath.Join(sub, "show.rar")); err != nil {
		t.Fatalf("archive should survive cleanup: %v", err)
	}
}

func TestCleanTreeKeepMarkers(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "title.mkv"), "payload")

	engine, store := newEngine(true)
	if err := store.Write(root, "title", []string{"title.mkv"}); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	result, err := engine.CleanTree(context.Background(), root)
	if err != nil {
		t.Fatalf("CleanTree returned error: %v", err)
	}
	if len(result.MarkersRemoved) != 0 {
		t.Fatalf("markers must survive with keep_markers, got %v", result.MarkersRemoved)
	}
	if _, err := os.Stat(store.PathFor(root, "title")); err != nil {
		t.Fatalf("marker should survive: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "title.mkv")); !os.IsNotExist(err) {
		t.Fatal("listed content should still be removed")
	}
}

func TestCleanTreeSkipsMissingPaths(t *testing.T) {
	root := t.TempDir()

	engine, store := newEngine(false)
	if err := store.Write(root, "gone", []string{"vanished.mkv"}); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	result, err := engine.CleanTree(context.Background(), root)
	if err != nil {
		t.Fatalf("CleanTree returned error: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("missing paths are not errors: %v", result.Errors)
	}
	if len(result.Removed) != 0 {
		t.Fatalf("nothing to remove, got %v", result.Removed)
	}
	if len(result.MarkersRemoved) != 1 {
		t.Fatal("marker should still be cleaned up")
	}
}

func TestCleanTreeLeavesDirectorySymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	write(t, filepath.Join(outside, "precious.txt"), "keep me")

	link := filepath.Join(root, "linked-dir")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	engine, store := newEngine(false)
	if err := store.Write(root, "set", []string{"linked-dir"}); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	result, err := engine.CleanTree(context.Background(), root)
	if err != nil {
		t.Fatalf("CleanTree returned error: %v", err)
	}
	if len(result.SkippedLinks) != 1 {
		t.Fatalf("expected skipped link, got %+v", result)
	}
	if _, err := os.Lstat(link); err != nil {
		t.Fatalf("directory symlink must survive: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outside, "precious.txt")); err != nil {
		t.Fatalf("link target content must survive: %v", err)
	}
}

func TestCleanTreeRemovesFileSymlinkNotTarget(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	targetFile := filepath.Join(outside, "real.mkv")
	write(t, targetFile, "payload")

	link := filepath.Join(root, "linked.mkv")
	if err := os.Symlink(targetFile, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	engine, store := newEngine(false)
	if err := store.Write(root, "set", []string{"linked.mkv"}); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	if _, err := engine.CleanTree(context.Background(), root); err != nil {
		t.Fatalf("CleanTree returned error: %v", err)
	}
	if _, err := os.Lstat(link); !os.IsNotExist(err) {
		t.Fatal("file symlink should be removed")
	}
	if _, err := os.Stat(targetFile); err != nil {
		t.Fatalf("symlink target must survive: %v", err)
	}
}

func TestCleanTreeRejectsEscapingEntries(t *testing.T) {
	root := t.TempDir()
	sibling := t.TempDir()
	write(t, filepath.Join(sibling, "victim.txt"), "keep me")

	engine, store := newEngine(false)
	rel, err := filepath.Rel(root, filepath.Join(sibling, "victim.txt"))
	if err != nil {
		t.Fatalf("rel: %v", err)
	}
	if err := store.Write(root, "evil", []string{rel, "/etc/passwd"}); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	result, cleanErr := engine.CleanTree(context.Background(), root)
	if cleanErr != nil {
		t.Fatalf("CleanTree returned error: %v", cleanErr)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected both entries rejected, got %v", result.Errors)
	}
	if _, err := os.Stat(filepath.Join(sibling, "victim.txt")); err != nil {
		t.Fatalf("escaping entry must not be deleted: %v", err)
	}
	// The marker is kept for diagnosis when entries were rejected.
	if _, err := os.Stat(store.PathFor(root, "evil")); err != nil {
		t.Fatalf("marker should survive failed cleanup: %v", err)
	}
}

func TestCleanTreeContinuesAfterFailures(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "a-first")
	second := filepath.Join(root, "b-second")
	write(t, filepath.Join(first, "bad.mkv"), "payload")
	write(t, filepath.Join(second, "good.mkv"), "payload")

	engine, store := newEngine(false)
	if err := store.Write(first, "bad", []string{"/absolute/escape"}); err != nil {
		t.Fatalf("seed marker: %v", err)
	}
	if err := store.Write(second, "good", []string{"good.mkv"}); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	result, err := engine.CleanTree(context.Background(), root)
	if err != nil {
		t.Fatalf("CleanTree returned error: %v", err)
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected recorded error for first marker")
	}
	if _, err := os.Stat(filepath.Join(second, "good.mkv")); !os.IsNotExist(err) {
		t.Fatal("later directories must still be cleaned")
	}
}

func TestCleanTreeCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine, _ := newEngine(false)
	if _, err := engine.CleanTree(ctx, t.TempDir()); err == nil {
		t.Fatal("expected context error")
	}
}

func TestCleanTreeMissingRoot(t *testing.T) {
	engine, _ := newEngine(false)
	if _, err := engine.CleanTree(context.Background(), filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing root")
	}
}
