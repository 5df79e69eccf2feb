package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"unpakr/internal/cleanup"
	"unpakr/internal/lockfile"
	"unpakr/internal/marker"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var keepMarkers bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove extracted content recorded by completion markers",
		Long: "Runs the cleanup pass on its own: every path a completion marker lists\n" +
			"is deleted, then the marker itself unless --keep-markers is set. The\n" +
			"per-target lock guards the pass like a full run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			lock := lockfile.New(cfg.Paths.TargetDir, cfg.LockFileName)
			acquired, err := lock.TryAcquire()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !acquired {
				return fmt.Errorf("target is locked by another invocation: %s", lock.Path())
			}
			defer func() {
				_ = lock.Release()
			}()

			keep := cfg.Cleanup.KeepMarkers || keepMarkers
			engine := cleanup.NewEngine(marker.NewStore(cfg.MarkerSuffix), keep, logger)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := engine.CleanTree(runCtx, cfg.Paths.TargetDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d path(s) and %d marker(s); %d directory symlink(s) left in place\n",
				len(result.Removed), len(result.MarkersRemoved), len(result.SkippedLinks))
			for _, failure := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  failed: %s: %v\n", failure.Path, failure.Err)
			}
			if len(result.Errors) > 0 {
				fmt.Fprintf(out, "%d path(s) could not be removed; their markers were kept for retry\n", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepMarkers, "keep-markers", false, "Keep completion markers after removing their content")
	return cmd
}
