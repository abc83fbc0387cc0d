package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"echoes/internal/config"
	"echoes/internal/logging"
	"echoes/internal/preflight"
	"echoes/internal/report"
	"echoes/internal/services"
	"echoes/internal/staging"
	"echoes/internal/workflow"
)

type processFlags struct {
	createTasks      bool
	scheduleFollowup bool
	async            bool
	output           string
	format           string
	language         string
	timeout          time.Duration
	quiet            bool
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags processFlags

	cmd := &cobra.Command{
		Use:   "process <audio-file>",
		Short: "Transcribe, summarize and extract action items from a recording",
		Long: `Process an audio recording (mp3, wav, m4a or ogg).

The result is written as JSON next to the input as <name>_summary.json unless
--output is given. Task creation and follow-up scheduling run only when
requested and when their credentials are configured; failures there are
reported in the result's integrations list and never fail the run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, ctx, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.createTasks, "create-tasks", false, "Create tasks from extracted action items")
	cmd.Flags().BoolVar(&flags.scheduleFollowup, "schedule-followup", false, "Schedule a follow-up meeting based on the summary")
	cmd.Flags().BoolVar(&flags.async, "async", false, "Run the pipeline on a background worker and wait for it")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Path to save the result (default: <input>_summary.<format>)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format: json, xlsx or docx")
	cmd.Flags().StringVarP(&flags.language, "language", "l", "", "Override transcription.language (BCP 47, e.g. en-US)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Abort the run if it has not finished within this duration")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Only print the output path")
	return cmd
}

func runProcess(cmd *cobra.Command, ctx *commandContext, input string, flags processFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	inputPath, err := config.ExpandPath(strings.TrimSpace(input))
	if err != nil {
		return err
	}
	info, err := os.Stat(inputPath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("input file not found: %s", input)
	}
	format, err := report.ParseFormat(flags.format)
	if err != nil {
		return err
	}
	outputPath := report.DefaultPath(inputPath, format)
	if strings.TrimSpace(flags.output) != "" {
		if outputPath, err = config.ExpandPath(flags.output); err != nil {
			return err
		}
	}

	if err := preflight.Error(preflight.Required(cfg)); err != nil {
		return err
	}
	sweepStaleRuns(cmd.Context(), cfg, logger)

	processor, err := workflow.NewFromConfig(cfg, logger, nil)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, flags.timeout)
		defer cancel()
	}

	opts := workflow.Options{
		CreateTasks:      flags.createTasks,
		ScheduleFollowup: flags.scheduleFollowup,
		Language:         strings.TrimSpace(flags.language),
	}
	var result *workflow.Result
	if flags.async {
		pool := workflow.NewPool(processor, cfg.Workflow.MaxWorkers)
		result, err = pool.Run(runCtx, inputPath, opts)
		pool.Close()
	} else {
		result, err = processor.Process(runCtx, inputPath, opts)
	}
	if err != nil {
		return describeFailure(inputPath, err)
	}

	if err := report.Write(context.WithoutCancel(runCtx), outputPath, format, result); err != nil {
		return fmt.Errorf("save results: %w", err)
	}

	out := cmd.OutOrStdout()
	if !flags.quiet && isTerminal(out) {
		fmt.Fprint(out, renderResult(result, true))
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Processing complete. Results saved to: %s\n", outputPath)
	return nil
}

// describeFailure turns a run error into one operator-facing line.
func describeFailure(input string, err error) error {
	name := filepath.Base(input)
	if services.Kind(err) == "cancelled" {
		return fmt.Errorf("processing %s stopped: %w", name, err)
	}
	if stage, _, _, ok := services.Details(err); ok && stage != "" {
		return fmt.Errorf("processing %s failed while %s: %w", name, stage, err)
	}
	return fmt.Errorf("processing %s failed: %w", name, err)
}

func sweepStaleRuns(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	if cfg.Workflow.StaleRunHours <= 0 {
		return
	}
	result := staging.CleanStale(ctx, cfg.Paths.StagingDir, time.Duration(cfg.Workflow.StaleRunHours)*time.Hour, logger)
	if len(result.Removed) > 0 {
		logger.Info("stale run directories removed", logging.Int("count", len(result.Removed)))
	}
}
