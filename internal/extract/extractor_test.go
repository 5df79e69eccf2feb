package extract_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"unpakr/internal/extract"
	"unpakr/internal/logging"
	"unpakr/internal/marker"
	"unpakr/internal/scan"
)

type stubClient struct {
	calls  int
	stderr []byte
	err    error
	onRun  func(destDir string)
}

func (s *stubClient) Extract(_ context.Context, _, _, destDir string) ([]byte, error) {
	s.calls++
	if s.onRun != nil {
		s.onRun(destDir)
	}
	return s.stderr, s.err
}

func newCandidate(t *testing.T, dir, name string) scan.Candidate {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("archive-bytes"), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	ext := filepath.Ext(name)
	return scan.Candidate{
		Path: path,
		Dir:  dir,
		Base: strings.TrimSuffix(name, ext),
		Ext:  ext,
	}
}

func TestExtractWritesMarkerWithNewPaths(t *testing.T) {
	dir := t.TempDir()
	candidate := newCandidate(t, dir, "show.rar")

	client := &stubClient{onRun: func(destDir string) {
		if err := os.MkdirAll(filepath.Join(destDir, "sample"), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		for _, name := range []string{"show.mkv", filepath.Join("sample", "clip.mkv")} {
			if err := os.WriteFile(filepath.Join(destDir, name), []byte("payload"), 0o644); err != nil {
				t.Fatalf("write %s: %v", name, err)
			}
		}
	}}
	markers := marker.NewStore(".unpakr-unpacked")
	extractor := extract.NewExtractor(client, markers, logging.NewNop())

	result, err := extractor.Extract(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if result.Outcome != extract.OutcomeExtracted {
		t.Fatalf("unexpected outcome: %v", result.Outcome)
	}

	want := []string{"sample", filepath.Join("sample", "clip.mkv"), "show.mkv"}
	if !reflect.DeepEqual(result.NewPaths, want) {
		t.Fatalf("unexpected new paths: got %v want %v", result.NewPaths, want)
	}

	listed, err := markers.Read(markers.PathFor(dir, "show"))
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	if !reflect.DeepEqual(listed, want) {
		t.Fatalf("marker body mismatch: got %v want %v", listed, want)
	}
}

func TestExtractSkipsWhenMarkerPresent(t *testing.T) {
	dir := t.TempDir()
	candidate := newCandidate(t, dir, "show.rar")

	markers := marker.NewStore(".unpakr-unpacked")
	if err := markers.Write(dir, "show", []string{"show.mkv"}); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	client := &stubClient{}
	extractor := extract.NewExtractor(client, markers, logging.NewNop())

	result, err := extractor.Extract(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if result.Outcome != extract.OutcomeSkipped {
		t.Fatalf("unexpected outcome: %v", result.Outcome)
	}
	if client.calls != 0 {
		t.Fatalf("unpack tool must not run when marker exists, calls = %d", client.calls)
	}
}

func TestExtractFailureStaysRetryable(t *testing.T) {
	dir := t.TempDir()
	candidate := newCandidate(t, dir, "broken.rar")

	client := &stubClient{
		stderr: []byte("CRC failed in volume"),
		err:    errors.New("exit status 3"),
	}
	markers := marker.NewStore(".unpakr-unpacked")
	extractor := extract.NewExtractor(client, markers, logging.NewNop())

	result, err := extractor.Extract(context.Background(), candidate)
	if err != nil {
		t.Fatalf("failure must stay local, got orchestration error: %v", err)
	}
	if result.Outcome != extract.OutcomeFailed {
		t.Fatalf("unexpected outcome: %v", result.Outcome)
	}
	if result.Err == nil {
		t.Fatal("expected recorded failure")
	}
	if !strings.Contains(string(result.Stderr), "CRC failed") {
		t.Fatalf("expected captured stderr, got %q", result.Stderr)
	}

	gated, err := markers.Exists(dir, "broken")
	if err != nil {
		t.Fatalf("Exists returned error: %v", err)
	}
	if gated {
		t.Fatal("failed extraction must not write a marker")
	}
}

func TestExtractMarkerListsOnlyNewPaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "preexisting.nfo"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write preexisting: %v", err)
	}
	candidate := newCandidate(t, dir, "title.zip")

	client := &stubClient{onRun: func(destDir string) {
		if err := os.WriteFile(filepath.Join(destDir, "title.mkv"), []byte("payload"), 0o644); err != nil {
			t.Fatalf("write extracted: %v", err)
		}
	}}
	markers := marker.NewStore(".unpakr-unpacked")
	extractor := extract.NewExtractor(client, markers, logging.NewNop())

	result, err := extractor.Extract(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !reflect.DeepEqual(result.NewPaths, []string{"title.mkv"}) {
		t.Fatalf("pre-existing content leaked into marker: %v", result.NewPaths)
	}
}

func TestExtractSharedBaseGatedBySingleMarker(t *testing.T) {
	// A .rar and a .zip with the same base share a marker key: once one
	// extracts, the other is skipped.
	dir := t.TempDir()
	rar := newCandidate(t, dir, "title.rar")
	zip := newCandidate(t, dir, "title.zip")

	client := &stubClient{onRun: func(destDir string) {
		os.WriteFile(filepath.Join(destDir, "title.mkv"), []byte("payload"), 0o644)
	}}
	markers := marker.NewStore(".unpakr-unpacked")
	extractor := extract.NewExtractor(client, markers, logging.NewNop())

	first, err := extractor.Extract(context.Background(), rar)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if first.Outcome != extract.OutcomeExtracted {
		t.Fatalf("unexpected first outcome: %v", first.Outcome)
	}

	second, err := extractor.Extract(context.Background(), zip)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if second.Outcome != extract.OutcomeSkipped {
		t.Fatalf("expected shared-base skip, got %v", second.Outcome)
	}
	if client.calls != 1 {
		t.Fatalf("expected single tool invocation, got %d", client.calls)
	}
}

func TestExtractCanceledContext(t *testing.T) {
	dir := t.TempDir()
	candidate := newCandidate(t, dir, "show.rar")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	extractor := extract.NewExtractor(&stubClient{}, marker.NewStore(".unpakr-unpacked"), logging.NewNop())
	if _, err := extractor.Extract(ctx, candidate); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
