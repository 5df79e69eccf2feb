package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"unpakr/internal/extract"
	"unpakr/internal/history"
	"unpakr/internal/lockfile"
	"unpakr/internal/logging"
	"unpakr/internal/preflight"
	"unpakr/internal/scan"
	"unpakr/internal/services"
)

// Run executes one pipeline pass: preflight, lock, extraction walk, sync,
// cleanup. The returned error is non-nil only when the run aborted; a run
// that reached the end with per-archive failures returns a nil error and a
// Summary whose Failed counter is non-zero.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	log := logging.WithContext(ctx, r.componentLogger())

	summary := Summary{
		RunID:     runID,
		TargetDir: r.cfg.Paths.TargetDir,
		StartedAt: time.Now(),
	}

	log.Info("run starting",
		logging.String("target_dir", summary.TargetDir),
		logging.Bool("unpack", r.cfg.Unpack.Enabled),
		logging.Bool("sync", r.cfg.Sync.Enabled),
		logging.Bool("cleanup", r.cfg.Cleanup.Enabled),
	)

	if failed := preflight.Failed(preflight.RunAll(ctx, r.cfg)); len(failed) > 0 {
		err := services.Wrap(services.ErrConfiguration, "workflow", "preflight", preflightDetail(failed), nil)
		return r.fail(log, summary, "preflight", err)
	}

	lock := lockfile.New(r.cfg.Paths.TargetDir, r.cfg.LockFileName)
	acquired, err := lock.TryAcquire()
	if err != nil {
		return r.fail(log, summary, "lock", services.Wrap(services.ErrFilesystem, "workflow", "acquire lock", lock.Path(), err))
	}
	if !acquired {
		err := services.Wrap(services.ErrAlreadyLocked, "workflow", "acquire lock", lock.Path(), nil)
		return r.fail(log, summary, "lock", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn("lock release failed", logging.Error(err))
		}
	}()

	r.journalBegin(ctx, log, runID)

	if r.cfg.Unpack.Enabled {
		if err := r.extractTree(ctx, log, runID, &summary); err != nil {
			return r.fail(log, summary, "unpack", err)
		}
	}

	if r.cfg.Sync.Enabled {
		if err := r.syncTree(ctx, log, &summary); err != nil {
			return r.fail(log, summary, "sync", err)
		}
	}

	if r.cfg.Cleanup.Enabled {
		if err := r.cleanTree(ctx, log, &summary); err != nil {
			return r.fail(log, summary, "cleanup", err)
		}
	}

	summary.Duration = time.Since(summary.StartedAt)
	r.journalFinish(ctx, log, summary)
	if err := r.notifier.NotifyRunCompleted(ctx, summary.Extracted, summary.Failed, summary.Duration); err != nil {
		log.Warn("completion notification failed", logging.Error(err))
	}
	log.Info("run complete",
		logging.Int("directories", summary.Directories),
		logging.Int("extracted", summary.Extracted),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Bool("synced", summary.Synced),
		logging.Int("cleaned_paths", summary.CleanedPaths),
		logging.Int("cleanup_errors", summary.CleanupErrors),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// extractTree walks the target tree and runs every detected archive through
// the extractor, parent directories before children. Per-archive failures are
// counted and the walk continues; only an unreadable directory or ctx
// cancellation aborts.
func (r *Runner) extractTree(ctx context.Context, log *slog.Logger, runID string, summary *Summary) error {
	return scan.Walk(r.cfg.Paths.TargetDir, func(dir string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.Directories++

		candidates, err := r.detector.Scan(dir)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}

		dirCtx := services.WithDirectory(ctx, dir)
		for _, candidate := range candidates {
			summary.Candidates++
			result, err := r.extractor.Extract(services.WithArchive(dirCtx, candidate.Path), candidate)
			if err != nil {
				return err
			}
			r.journalExtraction(ctx, log, runID, result)
			switch result.Outcome {
			case extract.OutcomeExtracted:
				summary.Extracted++
			case extract.OutcomeSkipped:
				summary.Skipped++
			case extract.OutcomeFailed:
				summary.Failed++
				if nerr := r.notifier.NotifyExtractionFailed(dirCtx, candidate.Path, result.Err); nerr != nil {
					log.Warn("extraction notification failed", logging.Error(nerr))
				}
			}
		}
		return nil
	})
}

// syncTree mirrors the target tree to the configured remote. A sync failure
// aborts the run: cleanup must not remove content the remote never received.
func (r *Runner) syncTree(ctx context.Context, log *slog.Logger, summary *Summary) error {
	log.Info("sync starting", logging.String("remote", r.cfg.Sync.Remote))
	started := time.Now()
	if err := r.syncer.Sync(ctx, r.cfg.Paths.TargetDir, r.cfg.Sync.Remote); err != nil {
		return services.Wrap(services.ErrSyncFailed, "workflow", "sync", r.cfg.Sync.Remote, err)
	}
	summary.Synced = true
	log.Info("sync complete", logging.Duration("duration", time.Since(started)))
	return nil
}

// cleanTree removes extracted content recorded by completion markers.
// Per-path errors end up in the summary counters, not in the returned error.
func (r *Runner) cleanTree(ctx context.Context, log *slog.Logger, summary *Summary) error {
	result, err := r.cleaner.CleanTree(ctx, r.cfg.Paths.TargetDir)
	if err != nil {
		return err
	}
	summary.CleanedPaths = len(result.Removed)
	summary.MarkersRemoved = len(result.MarkersRemoved)
	summary.CleanupErrors = len(result.Errors)
	if len(result.Errors) > 0 {
		log.Warn("cleanup finished with errors",
			logging.Int("removed", len(result.Removed)),
			logging.Int("errors", len(result.Errors)),
		)
	}
	return nil
}

// fail finalizes an aborted run: journal the failure, notify, and hand the
// error back to the caller. Bookkeeping runs on a fresh context so it still
// happens when the abort came from cancellation.
func (r *Runner) fail(log *slog.Logger, summary Summary, stage string, err error) (Summary, error) {
	summary.Err = err
	summary.Duration = time.Since(summary.StartedAt)
	log.Error("run failed", logging.String("stage", stage), logging.Error(err))

	finishCtx := context.Background()
	r.journalFinish(finishCtx, log, summary)
	if nerr := r.notifier.NotifyRunFailed(finishCtx, err, stage); nerr != nil {
		log.Warn("failure notification failed", logging.Error(nerr))
	}
	return summary, err
}

// The journal is best effort: a broken history database degrades to warnings
// rather than failing a run that is otherwise doing useful filesystem work.

func (r *Runner) journalBegin(ctx context.Context, log *slog.Logger, runID string) {
	if r.store == nil {
		return
	}
	if err := r.store.BeginRun(ctx, runID, r.cfg.Paths.TargetDir); err != nil {
		log.Warn("journal begin failed", logging.Error(err))
	}
}

func (r *Runner) journalExtraction(ctx context.Context, log *slog.Logger, runID string, result extract.Result) {
	if r.store == nil {
		return
	}
	errMsg := ""
	if result.Err != nil {
		errMsg = result.Err.Error()
	}
	err := r.store.RecordExtraction(ctx, runID, result.Candidate.Path, string(result.Outcome), len(result.NewPaths), result.Duration, errMsg)
	if err != nil {
		log.Warn("journal extraction failed", logging.Error(err))
	}
}

func (r *Runner) journalFinish(ctx context.Context, log *slog.Logger, summary Summary) {
	if r.store == nil {
		return
	}
	status := history.RunStatusCompleted
	errMsg := ""
	if summary.ExitCode() != 0 {
		status = history.RunStatusFailed
	}
	if summary.Err != nil {
		errMsg = summary.Err.Error()
	}
	err := r.store.FinishRun(ctx, summary.RunID, history.RunSummary{
		Directories:  summary.Directories,
		Extracted:    summary.Extracted,
		Skipped:      summary.Skipped,
		Failed:       summary.Failed,
		Synced:       summary.Synced,
		CleanedPaths: summary.CleanedPaths,
		Status:       status,
		Error:        errMsg,
	})
	if err != nil {
		log.Warn("journal finish failed", logging.Error(err))
	}
}

func preflightDetail(failed []preflight.Result) string {
	parts := make([]string, 0, len(failed))
	for _, result := range failed {
		detail := strings.TrimSpace(result.Detail)
		if detail == "" {
			parts = append(parts, result.Name)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", result.Name, detail))
	}
	return strings.Join(parts, "; ")
}
