package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"echoes/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect and clean per-run work directories",
	}
	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))
	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List run directories left in staging",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
			runs, err := staging.ListRuns(stagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No run directories found")
				return nil
			}

			fmt.Fprintf(out, "Staging directory: %s\n\n", stagingDir)
			var total int64
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				total += run.Size
				rows = append(rows, []string{
					run.RunID,
					time.Since(run.ModTime).Truncate(time.Minute).String(),
					formatBytes(run.Size),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Run", "Age", "Size"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(runs), formatBytes(total))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove run directories left behind by interrupted runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if olderThan <= 0 {
				olderThan = time.Duration(cfg.Workflow.StaleRunHours) * time.Hour
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, olderThan, logger)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d run directories\n", len(result.Removed))
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  failed: %s: %v\n", e.Path, e.Err)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d directories could not be removed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Minimum age to remove (default: workflow.stale_run_hours)")
	return cmd
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
