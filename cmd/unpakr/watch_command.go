package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"unpakr/internal/daemon"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the target tree and run the pipeline on changes",
		Long: "Keeps a filesystem watch on the target tree and triggers a full\n" +
			"pipeline run after changes settle, plus a periodic fallback run.\n" +
			"Only one watch instance runs per host; stop with SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			runner, closeFn, err := ctx.newRunner(cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			d, err := daemon.New(cfg, runner, logger)
			if err != nil {
				return err
			}

			watchCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return d.Run(watchCtx)
		},
	}
}
