package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"echoes/internal/actions"
	"echoes/internal/audio"
	"echoes/internal/config"
	"echoes/internal/logging"
	"echoes/internal/metrics"
	"echoes/internal/notifications"
	"echoes/internal/services"
	"echoes/internal/services/calendar"
	"echoes/internal/services/tasks"
	"echoes/internal/summary"
	"echoes/internal/transcription"
)

// Preprocessor prepares audio for transcription.
type Preprocessor interface {
	EnsureWAV(ctx context.Context, path, workDir string) (audio.Artifact, error)
	Normalize(ctx context.Context, in audio.Artifact, workDir string, targetDBFS float64) (audio.Artifact, error)
	Probe(ctx context.Context, path string) (audio.ProbeResult, error)
}

// Transcriber turns normalized audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, artifact audio.Artifact, language string) (string, error)
}

// Summarizer condenses a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error)
	KeyPoints(ctx context.Context, text string) ([]string, error)
}

// ActionExtractor finds action items in a transcript.
type ActionExtractor interface {
	Extract(text string) []actions.Item
}

// Settings are the per-processor constants a run needs.
type Settings struct {
	StagingDir       string
	Language         string
	TargetDBFS       float64
	MinLength        int
	MaxLength        int
	FollowupHour     int
	FollowupDuration time.Duration
}

// Dependencies are the components a Processor drives. Tasks, Calendar,
// Notifier, Metrics, Logger and Now are optional.
type Dependencies struct {
	Preprocessor Preprocessor
	Transcriber  Transcriber
	Summarizer   Summarizer
	Extractor    ActionExtractor
	Tasks        tasks.Sink
	Calendar     calendar.Sink
	Notifier     notifications.Service
	Metrics      *metrics.Recorder
	Logger       *slog.Logger
	Now          func() time.Time
}

// Options are the caller's per-run choices.
type Options struct {
	CreateTasks      bool
	ScheduleFollowup bool
	// Language overrides Settings.Language when set.
	Language string
}

// Processor runs the pipeline. It holds no per-run state and is safe for
// concurrent use.
type Processor struct {
	settings Settings
	deps     Dependencies
	logger   *slog.Logger
}

// NewProcessor validates deps and fills optional ones with disabled or
// no-op implementations.
func NewProcessor(settings Settings, deps Dependencies) (*Processor, error) {
	if deps.Preprocessor == nil || deps.Transcriber == nil || deps.Summarizer == nil || deps.Extractor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "initialized", "new processor", "preprocessor, transcriber, summarizer and extractor are required", nil)
	}
	if settings.StagingDir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "initialized", "new processor", "staging dir required", nil)
	}
	if settings.TargetDBFS == 0 {
		settings.TargetDBFS = audio.DefaultTargetDBFS
	}
	if settings.FollowupDuration <= 0 {
		settings.FollowupDuration = 30 * time.Minute
	}
	if deps.Tasks == nil {
		deps.Tasks = tasks.NewDisabledSink()
	}
	if deps.Calendar == nil {
		deps.Calendar = calendar.NewDisabledSink()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Processor{
		settings: settings,
		deps:     deps,
		logger:   logging.NewComponentLogger(deps.Logger, "workflow"),
	}, nil
}

// NewFromConfig wires the configured backends and sinks.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*Processor, error) {
	transcriber, err := transcription.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	summarizer, err := summary.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	pre := audio.NewPreprocessor(audio.Options{
		FFmpegBinary:  cfg.Audio.FFmpegBinary,
		FFprobeBinary: cfg.Audio.FFprobeBinary,
		Logger:        logger,
	})
	return NewProcessor(SettingsFromConfig(cfg), Dependencies{
		Preprocessor: pre,
		Transcriber:  transcriber,
		Summarizer:   summarizer,
		Extractor:    actions.NewExtractor(),
		Tasks:        tasks.NewConfiguredSink(cfg),
		Calendar:     calendar.NewConfiguredSink(cfg),
		Notifier:     notifications.NewService(cfg),
		Metrics:      recorder,
		Logger:       logger,
	})
}

// SettingsFromConfig extracts run settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		StagingDir:       cfg.Paths.StagingDir,
		Language:         cfg.Transcription.Language,
		TargetDBFS:       cfg.Audio.TargetLoudnessDBFS,
		MinLength:        cfg.Summarization.MinLength,
		MaxLength:        cfg.Summarization.MaxLength,
		FollowupHour:     cfg.Calendar.FollowupHour,
		FollowupDuration: time.Duration(cfg.Calendar.FollowupMinutes) * time.Minute,
	}
}

// Capabilities reports which optional integrations are configured.
func (p *Processor) Capabilities() (tasksEnabled, calendarEnabled bool) {
	return p.deps.Tasks.Enabled(), p.deps.Calendar.Enabled()
}

// Process runs every stage on the calling goroutine. On a required-stage
// failure it returns the stage's error and no result.
func (p *Processor) Process(ctx context.Context, path string, opts Options) (*Result, error) {
	r := p.newRun(ctx, path, opts)
	p.deps.Metrics.RunStarted()
	r.logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Bool("create_tasks", opts.CreateTasks),
		logging.Bool("schedule_followup", opts.ScheduleFollowup),
	)

	result, err := p.execute(r)
	r.scope.close()
	elapsed := time.Since(r.started)
	if err != nil {
		p.finishFailed(r, err, elapsed)
		return nil, err
	}
	p.finishCompleted(r, result, elapsed)
	return result, nil
}

type run struct {
	id       string
	ctx      context.Context
	source   string
	opts     Options
	language string
	workDir  string
	started  time.Time
	state    *stateMachine
	scope    *artifactScope
	logger   *slog.Logger
}

func (p *Processor) newRun(ctx context.Context, path string, opts Options) *run {
	id := uuid.NewString()
	ctx = services.WithRunID(ctx, id)
	logger := logging.WithContext(ctx, p.logger).With(logging.String("source", filepath.Base(path)))
	language := opts.Language
	if language == "" {
		language = p.settings.Language
	}
	return &run{
		id:       id,
		ctx:      ctx,
		source:   path,
		opts:     opts,
		language: language,
		workDir:  filepath.Join(p.settings.StagingDir, id),
		started:  time.Now(),
		state:    newStateMachine(),
		scope:    newArtifactScope(logger),
		logger:   logger,
	}
}

func (p *Processor) execute(r *run) (*Result, error) {
	if err := os.MkdirAll(r.workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConversion, string(StateConverting), "create work dir", r.workDir, err)
	}
	r.scope.trackDir(r.workDir)

	var converted, normalized audio.Artifact
	err := p.stage(r, StateConverting, func(ctx context.Context) error {
		p.logProbe(ctx, r)
		var err error
		converted, err = p.deps.Preprocessor.EnsureWAV(ctx, r.source, r.workDir)
		r.scope.track(converted)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(r, StateNormalizing, func(ctx context.Context) error {
		var err error
		normalized, err = p.deps.Preprocessor.Normalize(ctx, converted, r.workDir, p.settings.TargetDBFS)
		r.scope.track(normalized)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.scope.release(converted)

	result := &Result{RunID: r.id, Source: r.source, Tasks: []tasks.Task{}}
	err = p.stage(r, StateTranscribing, func(ctx context.Context) error {
		var err error
		result.Transcript, err = p.deps.Transcriber.Transcribe(ctx, normalized, r.language)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.scope.release(normalized)

	err = p.stage(r, StateSummarizing, func(ctx context.Context) error {
		var err error
		result.Summary, err = p.deps.Summarizer.Summarize(ctx, result.Transcript, p.settings.MinLength, p.settings.MaxLength)
		if err != nil {
			return err
		}
		result.KeyPoints, err = p.deps.Summarizer.KeyPoints(ctx, result.Transcript)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(r, StateExtractingActions, func(context.Context) error {
		result.ActionItems = p.deps.Extractor.Extract(result.Transcript)
		if result.ActionItems == nil {
			result.ActionItems = []actions.Item{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(r, StateIntegrating, func(ctx context.Context) error {
		p.integrate(ctx, r, result)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := r.state.advance(StateCompleted); err != nil {
		return nil, err
	}
	return result, nil
}

// stage checks for cancellation, enters state and runs fn detached from
// cancellation so an in-flight backend call finishes on its own timeout.
func (p *Processor) stage(r *run, state State, fn func(ctx context.Context) error) error {
	if err := r.ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled before %s: %w", state, err)
	}
	if err := r.state.advance(state); err != nil {
		return err
	}
	stageCtx := services.WithStage(context.WithoutCancel(r.ctx), string(state))
	logger := logging.WithContext(stageCtx, r.logger)
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	start := time.Now()
	err := fn(stageCtx)
	elapsed := time.Since(start)
	p.deps.Metrics.ObserveStage(string(state), elapsed)
	if err != nil {
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", elapsed),
	)
	return nil
}

func (p *Processor) logProbe(ctx context.Context, r *run) {
	probe, err := p.deps.Preprocessor.Probe(ctx, r.source)
	if err != nil {
		r.logger.Debug("input probe failed", logging.Error(err))
		return
	}
	attrs := []logging.Attr{
		logging.Float64("duration_seconds", probe.DurationSeconds()),
		logging.Int64("size_bytes", probe.SizeBytes()),
		logging.String("container", probe.Format.FormatName),
	}
	if stream, ok := probe.AudioStream(); ok {
		attrs = append(attrs,
			logging.String("codec", stream.CodecName),
			logging.Int("channels", stream.Channels),
			logging.String("sample_rate", stream.SampleRate),
		)
	}
	r.logger.Info("input probed", logging.Args(attrs...)...)
}

var errorHints = map[string]string{
	"unsupported_format": "convert the recording to wav, mp3, m4a or ogg",
	"conversion":         "check ffmpeg is installed and the file is a valid recording (echoes doctor)",
	"normalization":      "the converted audio could not be decoded; try re-exporting the recording",
	"transcription":      "check the transcription backend and that the recording contains speech",
	"summarization":      "check summarization credentials and model (echoes doctor)",
	"cancelled":          "the run was cancelled or timed out",
}

func (p *Processor) finishFailed(r *run, err error, elapsed time.Duration) {
	from := r.state.current
	if !from.Terminal() {
		_ = r.state.advance(StateFailed)
	}
	kind := services.Kind(err)
	hint := errorHints[kind]
	if hint == "" {
		hint = "check logs for details"
	}
	logging.ErrorWithContext(r.logger, "run failed", "run_failure",
		logging.String(logging.FieldStage, string(from)),
		logging.String(logging.FieldErrorKind, kind),
		logging.String(logging.FieldErrorHint, hint),
		logging.Duration("run_duration", elapsed),
		logging.Error(err),
	)
	p.deps.Metrics.RunFinished(string(StateFailed), kind, elapsed)
	p.notify(r, notifications.EventRunFailed, notifications.Payload{
		"source": filepath.Base(r.source),
		"stage":  string(from),
		"error":  err,
	})
}

func (p *Processor) finishCompleted(r *run, result *Result, elapsed time.Duration) {
	r.logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("action_items", len(result.ActionItems)),
		logging.Int("key_points", len(result.KeyPoints)),
		logging.Int("tasks", len(result.Tasks)),
		logging.Bool("followup_scheduled", result.CalendarEvent != nil),
		logging.Duration("run_duration", elapsed),
	)
	p.deps.Metrics.RunFinished(string(StateCompleted), services.Kind(nil), elapsed)
	p.notify(r, notifications.EventRunCompleted, notifications.Payload{
		"source":      filepath.Base(r.source),
		"actionItems": len(result.ActionItems),
		"tasks":       len(result.Tasks),
		"followup":    result.CalendarEvent != nil,
		"duration":    elapsed,
	})
}

func (p *Processor) notify(r *run, event notifications.Event, payload notifications.Payload) {
	if err := p.deps.Notifier.Publish(context.WithoutCancel(r.ctx), event, payload); err != nil {
		logging.WarnWithContext(r.logger, "notification failed", "notification_failure",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "no push notification was delivered"),
		)
	}
}
