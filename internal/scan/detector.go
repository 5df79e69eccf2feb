package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"unpakr/internal/services"
)

// Candidate is a primary archive volume found directly inside a directory.
type Candidate struct {
	// Path is the absolute archive location.
	Path string
	// Dir is the directory containing the archive.
	Dir string
	// Base is the file name with the supported extension stripped. Completion
	// markers are keyed on this value, so a .rar and a .zip sharing a base
	// share one marker.
	Base string
	// Ext is the lowercased extension including the leading dot.
	Ext string
}

// Detector finds primary archive volumes. Continuation volumes (later parts of
// multi-volume sets) are filtered out by glob patterns so only the volume the
// unpack tool should be pointed at surfaces as a candidate.
type Detector struct {
	extensions map[string]struct{}
	excludes   []string
}

// NewDetector builds a detector from the supported extension set (the keys of
// the command table) and the continuation-volume exclusion globs. Extensions
// and patterns are matched case-insensitively.
func NewDetector(extensions []string, excludes []string) *Detector {
	extSet := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extSet[ext] = struct{}{}
	}
	patterns := make([]string, 0, len(excludes))
	for _, pattern := range excludes {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern != "" {
			patterns = append(patterns, pattern)
		}
	}
	return &Detector{extensions: extSet, excludes: patterns}
}

// Scan returns the candidates directly inside dir, sorted by file name. It
// never recurses; Walk supplies recursion.
func (d *Detector) Scan(dir string) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "scan", "detect", fmt.Sprintf("read %s", dir), err)
	}

	var candidates []Candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		candidate, ok := d.Match(dir, entry.Name())
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Path < candidates[j].Path
	})
	return candidates, nil
}

// Match classifies one file name the way Scan does: exclusion globs are
// consulted first, so a continuation volume never matches even when its
// extension is in the command table.
func (d *Detector) Match(dir, name string) (Candidate, bool) {
	lower := strings.ToLower(name)
	if d.excluded(lower) {
		return Candidate{}, false
	}
	ext := filepath.Ext(lower)
	if _, ok := d.extensions[ext]; !ok {
		return Candidate{}, false
	}
	return Candidate{
		Path: filepath.Join(dir, name),
		Dir:  dir,
		Base: name[:len(name)-len(ext)],
		Ext:  ext,
	}, true
}

func (d *Detector) excluded(lowerName string) bool {
	for _, pattern := range d.excludes {
		if ok, err := filepath.Match(pattern, lowerName); err == nil && ok {
			return true
		}
	}
	return false
}
