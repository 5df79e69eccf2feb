package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"unpakr/internal/config"
	"unpakr/internal/history"
	"unpakr/internal/marker"
	"unpakr/internal/preflight"
	"unpakr/internal/scan"
	"unpakr/internal/textutil"
)

const pendingTableLimit = 15

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var historyN int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show lock state, pending archives, and run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			printConfigSection(out, ctx, cfg, colorize)
			printLockSection(out, cfg, colorize)
			printDependencySection(cmd.Context(), out, cfg, colorize)
			printTreeSection(cmd.Context(), out, cfg, colorize)
			if cfg.History.Enabled {
				printHistorySection(cmd.Context(), out, cfg, historyN, colorize)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&historyN, "history", 5, "Number of recent runs to display")
	return cmd
}

func printConfigSection(out io.Writer, ctx *commandContext, cfg *config.Config, colorize bool) {
	fmt.Fprintln(out, renderSectionHeader("Configuration", colorize))
	source := ctx.configPath
	if strings.TrimSpace(source) == "" {
		source = "(defaults)"
	}
	fmt.Fprintln(out, renderStatusLine("Config", statusInfo, source, colorize))
	fmt.Fprintln(out, renderStatusLine("Target directory", statusInfo, cfg.Paths.TargetDir, colorize))
	steps := fmt.Sprintf("unpack=%s sync=%s cleanup=%s",
		yesNo(cfg.Unpack.Enabled), yesNo(cfg.Sync.Enabled), yesNo(cfg.Cleanup.Enabled))
	fmt.Fprintln(out, renderStatusLine("Steps", statusInfo, steps, colorize))
	fmt.Fprintln(out)
}

func printLockSection(out io.Writer, cfg *config.Config, colorize bool) {
	fmt.Fprintln(out, renderSectionHeader("Lock", colorize))
	lockPath := filepath.Join(cfg.Paths.TargetDir, cfg.LockFileName)
	switch _, err := os.Stat(lockPath); {
	case err == nil:
		fmt.Fprintln(out, renderStatusLine("Target lock", statusWarn, "held: "+lockPath, colorize))
	case os.IsNotExist(err):
		fmt.Fprintln(out, renderStatusLine("Target lock", statusOK, "free", colorize))
	default:
		fmt.Fprintln(out, renderStatusLine("Target lock", statusError, err.Error(), colorize))
	}
	fmt.Fprintln(out)
}

func printDependencySection(ctx context.Context, out io.Writer, cfg *config.Config, colorize bool) {
	fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
	for _, result := range preflight.RunAll(ctx, cfg) {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	fmt.Fprintln(out)
}

func printTreeSection(ctx context.Context, out io.Writer, cfg *config.Config, colorize bool) {
	fmt.Fprintln(out, renderSectionHeader("Target tree", colorize))

	detector := scan.NewDetector(cfg.UnpackExtensions(), cfg.Unpack.ExcludePatterns)
	markers := marker.NewStore(cfg.MarkerSuffix)
	census, err := scan.TakeCensus(ctx, cfg.Paths.TargetDir, detector, markers)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Census", statusError, err.Error(), colorize))
		fmt.Fprintln(out)
		return
	}

	contents := fmt.Sprintf("%s files in %s directories, %s",
		humanize.Comma(int64(census.Files)),
		humanize.Comma(int64(census.Directories)),
		humanize.IBytes(uint64(census.Bytes)))
	fmt.Fprintln(out, renderStatusLine("Contents", statusInfo, contents, colorize))
	fmt.Fprintln(out, renderStatusLine("Completed groups", statusOK, humanize.Comma(int64(census.CompletedGroups)), colorize))

	pendingKind := statusOK
	if len(census.PendingArchives) > 0 {
		pendingKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Pending archives", pendingKind, humanize.Comma(int64(len(census.PendingArchives))), colorize))

	if len(census.PendingArchives) > 0 {
		rows := make([][]string, 0, len(census.PendingArchives))
		for i, archive := range census.PendingArchives {
			if i == pendingTableLimit {
				rows = append(rows, []string{"…", fmt.Sprintf("(%d more)", len(census.PendingArchives)-pendingTableLimit)})
				break
			}
			rel, relErr := filepath.Rel(cfg.Paths.TargetDir, archive)
			if relErr != nil {
				rel = archive
			}
			rows = append(rows, []string{textutil.DisplayTitle(filepath.Dir(archive)), rel})
		}
		fmt.Fprintln(out, renderTable([]string{"RELEASE", "ARCHIVE"}, rows))
	}
	fmt.Fprintln(out)
}

func printHistorySection(ctx context.Context, out io.Writer, cfg *config.Config, limit int, colorize bool) {
	fmt.Fprintln(out, renderSectionHeader("Recent runs", colorize))

	store, err := history.Open(cfg)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Journal", statusError, err.Error(), colorize))
		return
	}
	defer store.Close()

	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Journal", statusError, err.Error(), colorize))
		return
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, renderStatusLine("Journal", statusInfo, "no runs recorded", colorize))
		return
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortRunID(run.ID),
			humanize.Time(run.StartedAt),
			run.Status,
			fmt.Sprintf("%d", run.Extracted),
			fmt.Sprintf("%d", run.Failed),
			yesNo(run.Synced),
			fmt.Sprintf("%d", run.CleanedPaths),
			textutil.Truncate(run.Error, 40),
		})
	}
	headers := []string{"RUN", "STARTED", "STATUS", "EXTRACTED", "FAILED", "SYNCED", "CLEANED", "ERROR"}
	fmt.Fprintln(out, renderTable(headers, rows, 3, 4, 6))
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
