// Package marker persists per-archive completion markers.
//
// A marker is a plain-text file named <base>.unpakr-unpacked next to the
// archive it describes. Its body lists the relative paths extraction
// introduced, one per line, sorted. Plain text keeps the format
// human-inspectable; a torn write degrades to a truncated list rather than a
// corrupt record. Marker presence is the sole idempotency signal the pipeline
// trusts.
package marker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"unpakr/internal/services"
)

// Store reads and writes completion markers for a fixed marker suffix.
type Store struct {
	suffix string
}

// NewStore returns a store using the given marker suffix, such as
// ".unpakr-unpacked".
func NewStore(suffix string) *Store {
	return &Store{suffix: suffix}
}

// Suffix returns the configured marker suffix.
func (s *Store) Suffix() string {
	return s.suffix
}

// PathFor returns the marker location for an archive base name inside dir.
func (s *Store) PathFor(dir, base string) string {
	return filepath.Join(dir, base+s.suffix)
}

// IsMarkerName reports whether a file name carries the marker suffix.
func (s *Store) IsMarkerName(name string) bool {
	return strings.HasSuffix(name, s.suffix) && len(name) > len(s.suffix)
}

// BaseFor strips the marker suffix from a marker file name.
func (s *Store) BaseFor(markerName string) string {
	return strings.TrimSuffix(markerName, s.suffix)
}

// Exists reports whether a completion marker is present for base inside dir.
func (s *Store) Exists(dir, base string) (bool, error) {
	_, err := os.Stat(s.PathFor(dir, base))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, services.Wrap(services.ErrFilesystem, "marker", "stat", s.PathFor(dir, base), err)
}

// Write persists the extracted path list for base, one relative path per
// line in sorted order, overwriting any prior marker.
func (s *Store) Write(dir, base string, paths []string) error {
	sorted := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			sorted = append(sorted, p)
		}
	}
	sort.Strings(sorted)

	var body strings.Builder
	for _, p := range sorted {
		body.WriteString(p)
		body.WriteByte('\n')
	}

	path := s.PathFor(dir, base)
	if err := os.WriteFile(path, []byte(body.String()), 0o644); err != nil {
		return services.Wrap(services.ErrFilesystem, "marker", "write", path, err)
	}
	return nil
}

// Read returns the relative paths listed by the marker file at path. Blank
// lines are ignored; surrounding whitespace is trimmed.
func (s *Store) Read(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "marker", "read", path, err)
	}
	var paths []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

// Remove deletes the marker for base inside dir. Missing markers are not an
// error.
func (s *Store) Remove(dir, base string) error {
	path := s.PathFor(dir, base)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return services.Wrap(services.ErrFilesystem, "marker", "remove", path, err)
	}
	return nil
}

// List returns the marker file names directly inside dir, sorted.
func (s *Store) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "marker", "list", fmt.Sprintf("read %s", dir), err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if s.IsMarkerName(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
