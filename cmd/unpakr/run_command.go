package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"unpakr/internal/config"
	"unpakr/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		syncOn     bool
		syncOff    bool
		cleanOn    bool
		cleanOff   bool
		skipUnpack bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once over the target tree",
		Long: "Acquires the per-target lock, extracts every unmarked archive group,\n" +
			"then optionally syncs the tree to the configured remote and removes\n" +
			"extracted content. Exits non-zero on lock contention, extraction\n" +
			"failures, or a sync failure.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if syncOn && syncOff {
				return errors.New("--sync and --no-sync are mutually exclusive")
			}
			if cleanOn && cleanOff {
				return errors.New("--clean and --no-clean are mutually exclusive")
			}

			baseCfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCfg := overrideSteps(baseCfg, stepOverrides{
				syncOn:     syncOn,
				syncOff:    syncOff,
				cleanOn:    cleanOn,
				cleanOff:   cleanOff,
				skipUnpack: skipUnpack,
			})
			if runCfg.Sync.Enabled && strings.TrimSpace(runCfg.Sync.Remote) == "" {
				return errors.New("sync requested but sync.remote is not configured")
			}

			logger, err := ctx.newLogger(runCfg)
			if err != nil {
				return err
			}
			runner, closeFn, err := ctx.newRunner(runCfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := runner.Run(runCtx)
			if err != nil {
				return err
			}

			printRunSummary(cmd.OutOrStdout(), summary)
			if summary.Failed > 0 {
				return fmt.Errorf("%d archive(s) failed to extract; they stay unmarked and retry on the next run", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&syncOn, "sync", false, "Force the sync step on for this run")
	cmd.Flags().BoolVar(&syncOff, "no-sync", false, "Force the sync step off for this run")
	cmd.Flags().BoolVar(&cleanOn, "clean", false, "Force the cleanup step on for this run")
	cmd.Flags().BoolVar(&cleanOff, "no-clean", false, "Force the cleanup step off for this run")
	cmd.Flags().BoolVar(&skipUnpack, "skip-unpack", false, "Skip extraction and only run the later steps")
	return cmd
}

type stepOverrides struct {
	syncOn     bool
	syncOff    bool
	cleanOn    bool
	cleanOff   bool
	skipUnpack bool
}

// overrideSteps applies per-invocation step toggles to a copy, leaving the
// loaded config untouched for other commands.
func overrideSteps(cfg *config.Config, o stepOverrides) *config.Config {
	runCfg := *cfg
	if o.syncOn {
		runCfg.Sync.Enabled = true
	}
	if o.syncOff {
		runCfg.Sync.Enabled = false
	}
	if o.cleanOn {
		runCfg.Cleanup.Enabled = true
	}
	if o.cleanOff {
		runCfg.Cleanup.Enabled = false
	}
	if o.skipUnpack {
		runCfg.Unpack.Enabled = false
	}
	return &runCfg
}

func printRunSummary(out io.Writer, summary workflow.Summary) {
	fmt.Fprintf(out, "Run %s finished in %s\n", summary.RunID, summary.Duration.Round(10*time.Millisecond))
	fmt.Fprintf(out, "  Directories: %d\n", summary.Directories)
	fmt.Fprintf(out, "  Extracted:   %d\n", summary.Extracted)
	fmt.Fprintf(out, "  Skipped:     %d\n", summary.Skipped)
	fmt.Fprintf(out, "  Failed:      %d\n", summary.Failed)
	if summary.Synced {
		fmt.Fprintln(out, "  Synced:      yes")
	}
	if summary.CleanedPaths > 0 || summary.CleanupErrors > 0 {
		fmt.Fprintf(out, "  Cleaned:     %d path(s), %d marker(s), %d error(s)\n",
			summary.CleanedPaths, summary.MarkersRemoved, summary.CleanupErrors)
	}
}
