package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"echoes/internal/config"
	"echoes/internal/logging"
	"echoes/internal/metrics"
	"echoes/internal/notifications"
	"echoes/internal/preflight"
	"echoes/internal/report"
	"echoes/internal/watch"
	"echoes/internal/workflow"
)

const watchLockName = ".echoes-watch.lock"

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		outputDir        string
		metricsAddr      string
		format           string
		createTasks      bool
		scheduleFollowup bool
	)

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Process recordings as they appear in a directory",
		Long: `Watch a directory and process every new recording once it has finished
being written. Results land in the output directory as <name>_summary.<format>.

Runs execute on a worker pool sized by workflow.max_workers. On SIGINT or
SIGTERM the watcher stops accepting files and waits for in-flight runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			dir := cfg.Watch.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			if strings.TrimSpace(dir) == "" {
				return errors.New("no directory to watch: pass one or set watch.dir")
			}
			if dir, err = config.ExpandPath(dir); err != nil {
				return err
			}
			out := firstNonEmpty(outputDir, cfg.Watch.OutputDir, dir)
			if out, err = config.ExpandPath(out); err != nil {
				return err
			}
			reportFormat, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			if err := preflight.Error(preflight.Required(cfg)); err != nil {
				return err
			}

			lock := flock.New(filepath.Join(dir, watchLockName))
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire watch lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another echoes watcher is already running on %s", dir)
			}
			defer func() { _ = lock.Unlock() }()

			sweepStaleRuns(cmd.Context(), cfg, logger)

			recorder := metrics.New()
			addr := firstNonEmpty(metricsAddr, cfg.Watch.MetricsAddr)
			if addr != "" {
				server, err := metrics.NewServer(addr, recorder, logger)
				if err != nil {
					return fmt.Errorf("metrics listener: %w", err)
				}
				server.Start()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = server.Stop(shutdownCtx)
				}()
			}

			processor, err := workflow.NewFromConfig(cfg, logger, recorder)
			if err != nil {
				return err
			}
			session := newWatchSession(processor, cfg.Workflow.MaxWorkers, out, reportFormat, workflow.Options{
				CreateTasks:      createTasks,
				ScheduleFollowup: scheduleFollowup,
			}, logger)

			settle := time.Duration(cfg.Watch.SettleMS) * time.Millisecond
			watcher, err := watch.New(dir, settle, session.handle, logger)
			if err != nil {
				return err
			}
			defer watcher.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			notifier := notifications.NewService(cfg)
			if err := notifier.Publish(runCtx, notifications.EventWatchStarted, notifications.Payload{"dir": dir}); err != nil {
				logger.Debug("watch start notification failed", logging.Error(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (results in %s). Press Ctrl+C to stop.\n", dir, out)

			runErr := watcher.Run(runCtx)
			processed, failed := session.drain()
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped. %d processed, %d failed.\n", processed, failed)
			return runErr
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for results (default: watch.output_dir or the watched directory)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, xlsx or docx")
	cmd.Flags().BoolVar(&createTasks, "create-tasks", false, "Create tasks from extracted action items")
	cmd.Flags().BoolVar(&scheduleFollowup, "schedule-followup", false, "Schedule a follow-up meeting for every recording")
	return cmd
}

// watchSession submits settled recordings to a pool and writes each result
// as it completes.
type watchSession struct {
	pool      *workflow.Pool
	outputDir string
	format    report.Format
	opts      workflow.Options
	logger    *slog.Logger

	writers   sync.WaitGroup
	mu        sync.Mutex
	processed int
	failed    int
}

func newWatchSession(runner workflow.Runner, workers int, outputDir string, format report.Format, opts workflow.Options, logger *slog.Logger) *watchSession {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &watchSession{
		pool:      workflow.NewPool(runner, workers),
		outputDir: outputDir,
		format:    format,
		opts:      opts,
		logger:    logger,
	}
}

// handle runs detached from ctx so a shutdown signal drains in-flight work
// instead of abandoning it.
func (s *watchSession) handle(ctx context.Context, path string) {
	future, err := s.pool.Submit(context.WithoutCancel(ctx), path, s.opts)
	if err != nil {
		s.logger.Warn("recording not submitted", logging.String("path", path), logging.Error(err))
		return
	}
	s.writers.Add(1)
	go func() {
		defer s.writers.Done()
		<-future.Done()
		result, err := future.Wait(context.Background())
		if err == nil {
			target := report.PathIn(s.outputDir, path, s.format)
			if err = report.Write(context.Background(), target, s.format, result); err == nil {
				s.logger.Info("result written", logging.String("path", target))
			}
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.failed++
			return
		}
		s.processed++
	}()
}

// drain stops accepting work and waits for every submitted run and write.
func (s *watchSession) drain() (processed, failed int) {
	s.pool.Close()
	s.writers.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed, s.failed
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
