package scan_test

import (
	"os"
	"path/filepath"
	"testing"

	"unpakr/internal/config"
	"unpakr/internal/scan"
)

func newDetector() *scan.Detector {
	cfg := config.Default()
	exts := make([]string, 0, len(cfg.Unpack.Commands))
	for ext := range cfg.Unpack.Commands {
		exts = append(exts, ext)
	}
	return scan.NewDetector(exts, cfg.Unpack.ExcludePatterns)
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("payload"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestScanFindsPrimaryVolumes(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "show.rar", "movie.zip", "notes.txt", "checksum.sfv")

	candidates, err := newDetector().Scan(dir)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", candidates)
	}
	if candidates[0].Base != "movie" || candidates[0].Ext != ".zip" {
		t.Fatalf("unexpected first candidate: %+v", candidates[0])
	}
	if candidates[1].Base != "show" || candidates[1].Ext != ".rar" {
		t.Fatalf("unexpected second candidate: %+v", candidates[1])
	}
	if candidates[1].Dir != dir {
		t.Fatalf("unexpected candidate dir: %q", candidates[1].Dir)
	}
}

func TestScanExcludesContinuationVolumes(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"show.rar",
		"show.r00", "show.r01", "show.r23",
		"set.part1.rar", "set.part2.rar", "set.part9.rar",
		"big.part01.rar", "big.part02.rar", "big.part11.rar",
	)

	candidates, err := newDetector().Scan(dir)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	got := map[string]bool{}
	for _, c := range candidates {
		got[filepath.Base(c.Path)] = true
	}
	for _, want := range []string{"show.rar", "set.part1.rar", "big.part01.rar"} {
		if !got[want] {
			t.Fatalf("expected %s in candidates, got %v", want, got)
		}
	}
	for _, excluded := range []string{"show.r00", "show.r01", "set.part2.rar", "big.part02.rar", "big.part11.rar"} {
		if got[excluded] {
			t.Fatalf("continuation volume %s must not be a candidate", excluded)
		}
	}
}

func TestScanFirstVolumeByExtension(t *testing.T) {
	// .r01 style sets sometimes ship the first volume as .r00 or .r01 with no
	// plain .rar; the command table carries .r01 so it stays extractable when
	// configured as primary.
	dir := t.TempDir()
	touch(t, dir, "old-style.r01")

	det := scan.NewDetector([]string{".r01"}, nil)
	candidates, err := det.Scan(dir)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Base != "old-style" {
		t.Fatalf("unexpected candidates: %v", candidates)
	}
}

func TestScanCaseInsensitiveExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "UPPER.RAR", "Mixed.Zip")

	candidates, err := newDetector().Scan(dir)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", candidates)
	}
	for _, c := range candidates {
		if c.Ext != ".rar" && c.Ext != ".zip" {
			t.Fatalf("extension not lowercased: %+v", c)
		}
	}
	// Base keeps the original casing; only the extension is normalized.
	if candidates[1].Base != "UPPER" {
		t.Fatalf("unexpected base: %+v", candidates[1])
	}
}

func TestScanBothFormatsSameBase(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "title.rar", "title.zip")

	candidates, err := newDetector().Scan(dir)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected both formats as candidates, got %v", candidates)
	}
	if candidates[0].Base != candidates[1].Base {
		t.Fatalf("expected shared base, got %+v", candidates)
	}
}

func TestScanIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "nested.rar"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	touch(t, filepath.Join(dir, "nested.rar"), "inner.rar")

	candidates, err := newDetector().Scan(dir)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("directories must not be candidates, got %v", candidates)
	}
}

func TestScanMissingDirectory(t *testing.T) {
	if _, err := newDetector().Scan(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
