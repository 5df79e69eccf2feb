package extract_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"unpakr/internal/extract"
)

func TestTakeSnapshotListsFilesAndDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"a.rar", filepath.Join("sub", "b.mkv")} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	snap, err := extract.TakeSnapshot(dir)
	if err != nil {
		t.Fatalf("TakeSnapshot returned error: %v", err)
	}

	for _, want := range []string{"a.rar", "sub", filepath.Join("sub", "b.mkv")} {
		if _, ok := snap[want]; !ok {
			t.Fatalf("expected %q in snapshot, got %v", want, snap)
		}
	}
	if len(snap) != 3 {
		t.Fatalf("unexpected snapshot size: %v", snap)
	}
}

func TestDiffReturnsSortedAdditions(t *testing.T) {
	before := extract.Snapshot{"a.rar": {}, "keep.txt": {}}
	after := extract.Snapshot{
		"a.rar":    {},
		"keep.txt": {},
		"zeta.mkv": {},
		"alpha":    {},
		filepath.Join("alpha", "inner.srt"): {},
	}

	added := extract.Diff(before, after)
	want := []string{"alpha", filepath.Join("alpha", "inner.srt"), "zeta.mkv"}
	if !reflect.DeepEqual(added, want) {
		t.Fatalf("unexpected diff: got %v want %v", added, want)
	}
}

func TestDiffIgnoresRemovals(t *testing.T) {
	before := extract.Snapshot{"gone.txt": {}}
	after := extract.Snapshot{}

	if added := extract.Diff(before, after); len(added) != 0 {
		t.Fatalf("removals must not appear in diff, got %v", added)
	}
}
