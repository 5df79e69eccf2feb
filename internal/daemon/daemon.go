package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"unpakr/internal/config"
	"unpakr/internal/logging"
	"unpakr/internal/services"
	"unpakr/internal/workflow"
)

// Daemon watches the target tree and serializes pipeline runs onto a single
// goroutine.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	runner *workflow.Runner

	lockPath string
	lock     *flock.Flock
}

// New constructs a watch daemon around an existing runner.
func New(cfg *config.Config, runner *workflow.Runner, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || runner == nil || logger == nil {
		return nil, errors.New("daemon requires config, runner, and logger")
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "unpakr-watch.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "watch"),
		runner:   runner,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// LockPath returns the path of the single-instance lock file.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Run blocks until ctx is done. It performs one startup pass, then triggers
// a pipeline run after every settle window that follows a filesystem event,
// and on the fallback interval. A clean shutdown returns nil.
func (d *Daemon) Run(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire watch lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another watch instance holds %s", d.lockPath)
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("release watch lock failed", logging.Error(err))
		}
	}()

	watcher, err := newTreeWatcher(d.cfg.Paths.TargetDir, d.logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	settle := d.settleWindow()
	interval := d.pollInterval()
	d.logger.Info("watching target tree",
		logging.String("target_dir", d.cfg.Paths.TargetDir),
		logging.Duration("settle", settle),
		logging.Duration("interval", interval),
	)

	// Startup pass catches whatever accumulated while nothing was watching.
	d.trigger(ctx, "startup")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	settleTimer := time.NewTimer(time.Hour)
	settleTimer.Stop()
	defer settleTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("watch stopping")
			return nil

		case event, ok := <-watcher.Events():
			if !ok {
				return errors.New("watch event stream closed")
			}
			if !d.relevant(event) {
				continue
			}
			watcher.TrackCreate(event)
			settleTimer.Reset(settle)

		case err, ok := <-watcher.Errors():
			if !ok {
				return errors.New("watch error stream closed")
			}
			d.logger.Warn("watch error", logging.Error(err))

		case <-settleTimer.C:
			d.trigger(ctx, "settle")

		case <-ticker.C:
			d.trigger(ctx, "interval")
		}
	}
}

// relevant filters out events on unpakr's own control files so marker and
// lock writes from a triggered run do not immediately re-arm the settle
// window.
func (d *Daemon) relevant(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if base == d.cfg.LockFileName || strings.HasSuffix(base, d.cfg.MarkerSuffix) {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

// trigger executes one pipeline run. A target already locked by a concurrent
// invocation is normal in watch mode and only logged; real failures are
// logged and the watch keeps going.
func (d *Daemon) trigger(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	log := d.logger.With(logging.String("reason", reason))
	log.Info("pipeline run triggered")

	summary, err := d.runner.Run(ctx)
	switch {
	case errors.Is(err, services.ErrAlreadyLocked):
		log.Info("target locked by another invocation, skipping")
	case errors.Is(err, context.Canceled):
	case err != nil:
		log.Error("pipeline run failed", logging.Error(err))
	default:
		log.Info("pipeline run finished",
			logging.Int("extracted", summary.Extracted),
			logging.Int("skipped", summary.Skipped),
			logging.Int("failed", summary.Failed),
			logging.Duration("duration", summary.Duration),
		)
	}
}

func (d *Daemon) settleWindow() time.Duration {
	if d.cfg.Watch.SettleSeconds < 0 {
		return 0
	}
	return time.Duration(d.cfg.Watch.SettleSeconds) * time.Second
}

func (d *Daemon) pollInterval() time.Duration {
	if d.cfg.Watch.Interval <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(d.cfg.Watch.Interval) * time.Second
}
