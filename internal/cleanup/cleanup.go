// Package cleanup removes extracted output once it has served its purpose.
//
// The engine walks the target tree, reads every completion marker, and deletes
// the paths each marker names. Deletion never follows symbolic links: a link
// that resolves to a directory is left in place and everything else is removed
// as a single entry. That asymmetry can leave a dangling link behind, which is
// preferred over recursing through a link to content outside the tree.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"unpakr/internal/logging"
	"unpakr/internal/marker"
	"unpakr/internal/services"
)

// CleanupError pairs a path with the error that prevented its removal.
type CleanupError struct {
	Path string
	Err  error
}

// Result contains the outcome of a cleanup pass.
type Result struct {
	// Removed lists the extracted paths that were deleted.
	Removed []string
	// MarkersRemoved lists the marker files deleted after their content was
	// fully removed.
	MarkersRemoved []string
	// SkippedLinks lists symbolic links to directories that were deliberately
	// left in place.
	SkippedLinks []string
	// Errors records per-path failures; they never abort the pass.
	Errors []CleanupError
}

// Engine deletes extracted content recorded by completion markers.
type Engine struct {
	markers     *marker.Store
	keepMarkers bool
	logger      *slog.Logger
}

// NewEngine wires a cleanup engine. When keepMarkers is true the marker files
// survive the pass, so a later run will still treat the archives as done.
func NewEngine(markers *marker.Store, keepMarkers bool, logger *slog.Logger) *Engine {
	return &Engine{
		markers:     markers,
		keepMarkers: keepMarkers,
		logger:      logging.NewComponentLogger(logger, "cleanup"),
	}
}

// CleanTree processes every directory under root. Failures are recorded in
// the result and the pass continues; the returned error is non-nil only when
// root itself is unusable or ctx is done.
func (e *Engine) CleanTree(ctx context.Context, root string) (Result, error) {
	var result Result

	info, err := os.Stat(root)
	if err != nil {
		return result, services.Wrap(services.ErrFilesystem, "cleanup", "clean", fmt.Sprintf("stat %s", root), err)
	}
	if !info.IsDir() {
		return result, services.Wrap(services.ErrValidation, "cleanup", "clean", fmt.Sprintf("%s is not a directory", root), nil)
	}

	if err := e.cleanDir(ctx, root, &result); err != nil {
		return result, err
	}
	return result, nil
}

func (e *Engine) cleanDir(ctx context.Context, dir string, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directories are recorded and skipped, not fatal.
		result.Errors = append(result.Errors, CleanupError{Path: dir, Err: err})
		e.logger.Warn("cannot read directory", logging.String("path", dir), logging.Error(err))
		return nil
	}

	names := make([]string, 0, len(entries))
	subdirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, entry.Name())
			continue
		}
		if e.markers.IsMarkerName(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	sort.Strings(subdirs)

	for _, name := range names {
		e.cleanMarker(dir, name, result)
	}

	for _, name := range subdirs {
		// Markers may list directories this walk would otherwise descend
		// into; a vanished subdirectory here is expected, not an error.
		child := filepath.Join(dir, name)
		if _, err := os.Lstat(child); os.IsNotExist(err) {
			continue
		}
		if err := e.cleanDir(ctx, child, result); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) cleanMarker(dir, markerName string, result *Result) {
	markerPath := filepath.Join(dir, markerName)
	log := e.logger.With(logging.String("marker", markerPath))

	paths, err := e.markers.Read(markerPath)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: markerPath, Err: err})
		log.Warn("cannot read marker", logging.Error(err))
		return
	}

	failed := false
	for _, rel := range paths {
		target, ok := resolveListed(dir, rel)
		if !ok {
			failed = true
			err := services.Wrap(services.ErrValidation, "cleanup", "resolve", fmt.Sprintf("%q escapes %s", rel, dir), nil)
			result.Errors = append(result.Errors, CleanupError{Path: rel, Err: err})
			log.Warn("marker entry rejected", logging.String("entry", rel))
			continue
		}
		removed, skippedLink, err := removeListed(target)
		switch {
		case err != nil:
			failed = true
			result.Errors = append(result.Errors, CleanupError{Path: target, Err: err})
			log.Warn("cannot remove path", logging.String("path", target), logging.Error(err))
		case skippedLink:
			result.SkippedLinks = append(result.SkippedLinks, target)
			log.Debug("leaving directory symlink in place", logging.String("path", target))
		case removed:
			result.Removed = append(result.Removed, target)
		}
	}

	if e.keepMarkers {
		return
	}
	if failed {
		// Keep the marker so the remaining content stays referenced for a
		// retry of the cleanup pass.
		return
	}
	if err := e.markers.Remove(dir, e.markers.BaseFor(markerName)); err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: markerPath, Err: err})
		log.Warn("cannot remove marker", logging.Error(err))
		return
	}
	result.MarkersRemoved = append(result.MarkersRemoved, markerPath)
	log.Info("cleaned extracted content", logging.Int("paths", len(paths)))
}

// resolveListed joins a marker entry against the marker's directory, rejecting
// absolute entries and entries that escape the directory.
func resolveListed(dir, rel string) (string, bool) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", false
	}
	target := filepath.Join(dir, rel)
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)
	if !strings.HasPrefix(target, prefix) {
		return "", false
	}
	return target, true
}

// removeListed deletes a single marker entry. Directories are removed
// recursively only when they are real directories; symbolic links that
// resolve to directories are skipped, everything else is removed as one
// entry.
func removeListed(target string) (removed, skippedLink bool, err error) {
	info, err := os.Lstat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return false, false, nil
		}
		return false, false, err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		resolved, statErr := os.Stat(target)
		if statErr == nil && resolved.IsDir() {
			return false, true, nil
		}
		// Dangling links and links to files go as plain entries.
		if err := os.Remove(target); err != nil {
			return false, false, err
		}
		return true, false, nil
	}

	if info.IsDir() {
		if err := os.RemoveAll(target); err != nil {
			return false, false, err
		}
		return true, false, nil
	}

	if err := os.Remove(target); err != nil {
		return false, false, err
	}
	return true, false, nil
}
