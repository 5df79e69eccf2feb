package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"

	"unpakr/internal/marker"
	"unpakr/internal/services"
)

// Census summarizes a target tree for reporting: entry counts, total size,
// completion markers, and the candidate archives no marker covers yet.
type Census struct {
	Directories int
	Files       int
	Bytes       int64
	// CompletedGroups is the number of completion markers in the tree.
	CompletedGroups int
	// PendingArchives lists candidate archive paths with no completion
	// marker, sorted.
	PendingArchives []string
}

// TakeCensus gathers a Census in one parallel pass. It is read-only and
// independent of the pipeline's sequential walk; unreadable entries are
// skipped rather than reported, this is an overview not an audit.
func TakeCensus(ctx context.Context, root string, detector *Detector, markers *marker.Store) (Census, error) {
	if _, err := os.Stat(root); err != nil {
		return Census{}, services.Wrap(services.ErrFilesystem, "scan", "census", fmt.Sprintf("stat %s", root), err)
	}

	var (
		mu         sync.Mutex
		census     Census
		markerSet  = make(map[string]struct{})
		candidates []Candidate
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, entry fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if walkErr != nil {
			return nil
		}
		if entry.IsDir() {
			mu.Lock()
			census.Directories++
			mu.Unlock()
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}

		name := entry.Name()
		mu.Lock()
		census.Files++
		census.Bytes += info.Size()
		mu.Unlock()

		if markers.IsMarkerName(name) {
			mu.Lock()
			markerSet[path] = struct{}{}
			mu.Unlock()
			return nil
		}
		if candidate, ok := detector.Match(filepath.Dir(path), name); ok {
			mu.Lock()
			candidates = append(candidates, candidate)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return Census{}, services.Wrap(services.ErrFilesystem, "scan", "census", fmt.Sprintf("walk %s", root), err)
	}

	census.CompletedGroups = len(markerSet)
	for _, candidate := range candidates {
		if _, done := markerSet[markers.PathFor(candidate.Dir, candidate.Base)]; !done {
			census.PendingArchives = append(census.PendingArchives, candidate.Path)
		}
	}
	sort.Strings(census.PendingArchives)
	return census, nil
}
