package workflow

import (
	"log/slog"

	"unpakr/internal/cleanup"
	"unpakr/internal/config"
	"unpakr/internal/extract"
	"unpakr/internal/history"
	"unpakr/internal/logging"
	"unpakr/internal/marker"
	"unpakr/internal/notifications"
	"unpakr/internal/scan"
	"unpakr/internal/services/rsync"
	"unpakr/internal/services/unpack"
)

// Runner coordinates one pipeline pass over the configured target tree.
type Runner struct {
	cfg      *config.Config
	store    *history.Store
	logger   *slog.Logger
	notifier notifications.Service

	detector  *scan.Detector
	markers   *marker.Store
	extractor *extract.Extractor
	syncer    rsync.Client
	cleaner   *cleanup.Engine
}

// RunnerOption configures optional Runner behavior.
type RunnerOption func(*runnerOptions)

type runnerOptions struct {
	unpacker unpack.Client
	syncer   rsync.Client
}

// WithUnpackClient substitutes the unpack tool client (used in tests).
func WithUnpackClient(client unpack.Client) RunnerOption {
	return func(o *runnerOptions) {
		o.unpacker = client
	}
}

// WithSyncClient substitutes the sync tool client (used in tests).
func WithSyncClient(client rsync.Client) RunnerOption {
	return func(o *runnerOptions) {
		o.syncer = client
	}
}

// NewRunner constructs a runner with the ntfy notifier derived from cfg.
// store may be nil when the run journal is disabled.
func NewRunner(cfg *config.Config, store *history.Store, logger *slog.Logger) *Runner {
	return NewRunnerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewRunnerWithNotifier constructs a runner with a custom notifier (used in tests).
func NewRunnerWithNotifier(cfg *config.Config, store *history.Store, logger *slog.Logger, notifier notifications.Service, opts ...RunnerOption) *Runner {
	options := &runnerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	unpacker := options.unpacker
	if unpacker == nil {
		unpacker = unpack.NewCLI(cfg.Unpack.Commands)
	}
	syncer := options.syncer
	if syncer == nil {
		syncer = rsync.NewCLI(
			rsync.WithBinary(cfg.SyncBinary()),
			rsync.WithExcludes(cfg.Sync.ExcludePatterns),
		)
	}

	markers := marker.NewStore(cfg.MarkerSuffix)
	return &Runner{
		cfg:       cfg,
		store:     store,
		logger:    logger,
		notifier:  notifier,
		detector:  scan.NewDetector(cfg.UnpackExtensions(), cfg.Unpack.ExcludePatterns),
		markers:   markers,
		extractor: extract.NewExtractor(unpacker, markers, logger),
		syncer:    syncer,
		cleaner:   cleanup.NewEngine(markers, cfg.Cleanup.KeepMarkers, logger),
	}
}

// Markers exposes the marker store so commands can inspect tree state
// without building a second one from config.
func (r *Runner) Markers() *marker.Store {
	return r.markers
}

func (r *Runner) componentLogger() *slog.Logger {
	return logging.NewComponentLogger(r.logger, "workflow")
}
