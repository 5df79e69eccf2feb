package extract

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"unpakr/internal/services"
)

// Snapshot records every relative path (files and directories) under dir at a
// point in time. Snapshots exist only to compute the before/after diff around
// an extraction.
type Snapshot map[string]struct{}

// TakeSnapshot walks dir and returns the set of relative paths beneath it.
// The root itself is not included.
func TakeSnapshot(dir string) (Snapshot, error) {
	snap := make(Snapshot)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		snap[rel] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "extract", "snapshot", fmt.Sprintf("walk %s", dir), err)
	}
	return snap, nil
}

// Diff returns the paths present in after but not in before, sorted.
func Diff(before, after Snapshot) []string {
	var added []string
	for path := range after {
		if _, ok := before[path]; !ok {
			added = append(added, path)
		}
	}
	sort.Strings(added)
	return added
}
