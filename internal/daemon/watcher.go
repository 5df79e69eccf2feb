package daemon

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"unpakr/internal/logging"
)

// treeWatcher keeps an fsnotify watch on every real directory under the
// target root. Symlinked directories are not watched; the pipeline walk still
// scans them on each triggered run.
type treeWatcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger
}

func newTreeWatcher(root string, logger *slog.Logger) (*treeWatcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &treeWatcher{fsw: fsw, logger: logger}
	w.addTree(root)
	return w, nil
}

// addTree registers watches for dir and every directory below it. Unreadable
// subdirectories are logged and skipped so one bad permission bit does not
// take the whole watch down.
func (w *treeWatcher) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("cannot watch path", logging.String("path", path), logging.Error(walkErr))
			return nil
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("cannot watch directory", logging.String("path", path), logging.Error(err))
		}
		return nil
	})
}

// TrackCreate extends the watch set when a new directory appears, covering
// subdirectories that were created before their parent's watch was active.
func (w *treeWatcher) TrackCreate(event fsnotify.Event) {
	if event.Op&fsnotify.Create == 0 {
		return
	}
	info, err := os.Lstat(event.Name)
	if err != nil || !info.IsDir() {
		return
	}
	w.addTree(event.Name)
}

func (w *treeWatcher) Events() <-chan fsnotify.Event { return w.fsw.Events }

func (w *treeWatcher) Errors() <-chan error { return w.fsw.Errors }

func (w *treeWatcher) Close() error { return w.fsw.Close() }
