package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"echoes/internal/actions"
	"echoes/internal/audio"
	"echoes/internal/logging"
	"echoes/internal/metrics"
	"echoes/internal/notifications"
	"echoes/internal/services"
	"echoes/internal/services/calendar"
	"echoes/internal/services/tasks"
)

const transcript = "We need to schedule a meeting. John will prepare the report."

type fakePreprocessor struct {
	mu    sync.Mutex
	files []string
	err   error
}

func (f *fakePreprocessor) write(dir, name string) (audio.Artifact, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		return audio.Artifact{}, err
	}
	f.mu.Lock()
	f.files = append(f.files, path)
	f.mu.Unlock()
	return audio.Artifact{Path: path, Format: audio.FormatWAV, Temporary: true}, nil
}

func (f *fakePreprocessor) EnsureWAV(_ context.Context, path, workDir string) (audio.Artifact, error) {
	if strings.HasSuffix(path, ".wav") {
		return audio.Artifact{Path: path, Format: audio.FormatWAV}, nil
	}
	return f.write(workDir, "converted.wav")
}

func (f *fakePreprocessor) Normalize(_ context.Context, _ audio.Artifact, workDir string, _ float64) (audio.Artifact, error) {
	if f.err != nil {
		return audio.Artifact{}, f.err
	}
	return f.write(workDir, "normalized.wav")
}

func (f *fakePreprocessor) Probe(context.Context, string) (audio.ProbeResult, error) {
	return audio.ProbeResult{}, errors.New("no ffprobe")
}

type fakeTranscriber struct {
	text  string
	err   error
	delay time.Duration
	check func(audio.Artifact) error
}

func (f fakeTranscriber) Transcribe(_ context.Context, in audio.Artifact, _ string) (string, error) {
	if f.check != nil {
		if err := f.check(in); err != nil {
			return "", err
		}
	}
	time.Sleep(f.delay)
	return f.text, f.err
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(_ context.Context, text string, _, _ int) (string, error) {
	return "Short summary.", nil
}

func (fakeSummarizer) KeyPoints(_ context.Context, text string) ([]string, error) {
	return []string{"We need to schedule a meeting", "John will prepare the report"}, nil
}

type fakeTasks struct {
	enabled bool
	err     error
	calls   int
}

func (f *fakeTasks) Enabled() bool { return f.enabled }

func (f *fakeTasks) CreateTasks(_ context.Context, items []actions.Item) ([]tasks.Task, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]tasks.Task, 0, len(items))
	for i, item := range items {
		out = append(out, tasks.Task{ID: string(rune('1' + i)), Status: "open", Title: item.Action})
	}
	return out, nil
}

type fakeCalendar struct {
	enabled bool
	err     error
	got     *calendar.EventRequest
}

func (f *fakeCalendar) Enabled() bool { return f.enabled }

func (f *fakeCalendar) CreateEvent(_ context.Context, req calendar.EventRequest) (*calendar.Event, error) {
	f.got = &req
	if f.err != nil {
		return nil, f.err
	}
	return &calendar.Event{ID: "evt-1", Status: "confirmed", Summary: req.Summary}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type harness struct {
	pre      *fakePreprocessor
	tasks    *fakeTasks
	calendar *fakeCalendar
	notifier *recordingNotifier
	staging  string
	input    string
	deps     Dependencies
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	base := t.TempDir()
	input := filepath.Join(base, "meeting.mp3")
	if err := os.WriteFile(input, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := &harness{
		pre:      &fakePreprocessor{},
		tasks:    &fakeTasks{},
		calendar: &fakeCalendar{},
		notifier: &recordingNotifier{},
		staging:  filepath.Join(base, "staging"),
		input:    input,
	}
	h.deps = Dependencies{
		Preprocessor: h.pre,
		Transcriber:  fakeTranscriber{text: transcript},
		Summarizer:   fakeSummarizer{},
		Extractor:    actions.NewExtractor(),
		Tasks:        h.tasks,
		Calendar:     h.calendar,
		Notifier:     h.notifier,
		Metrics:      metrics.New(),
		Logger:       logging.NewNop(),
		Now: func() time.Time {
			return time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
		},
	}
	return h
}

func (h *harness) processor(t *testing.T) *Processor {
	t.Helper()
	p, err := NewProcessor(Settings{StagingDir: h.staging, Language: "en-US", MinLength: 30, MaxLength: 130, FollowupHour: 10}, h.deps)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	return p
}

func (h *harness) assertCleanedUp(t *testing.T) {
	t.Helper()
	for _, path := range h.pre.files {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected temporary artifact %s removed", path)
		}
	}
	entries, _ := os.ReadDir(h.staging)
	if len(entries) != 0 {
		t.Fatalf("expected staging dir empty, found %d entries", len(entries))
	}
	if _, err := os.Stat(h.input); err != nil {
		t.Fatalf("input must survive the run: %v", err)
	}
}

func TestProcessWithoutIntegrations(t *testing.T) {
	h := newHarness(t)
	h.tasks.enabled = true
	h.calendar.enabled = true
	result, err := h.processor(t).Process(context.Background(), h.input, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Transcript != transcript || result.Summary != "Short summary." {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.ActionItems) != 2 || result.ActionItems[1].Action != "prepare" {
		t.Fatalf("unexpected action items: %+v", result.ActionItems)
	}
	if result.Tasks == nil || len(result.Tasks) != 0 {
		t.Fatalf("expected empty non-nil tasks, got %#v", result.Tasks)
	}
	if result.CalendarEvent != nil {
		t.Fatal("expected no calendar event")
	}
	if h.tasks.calls != 0 || h.calendar.got != nil {
		t.Fatal("integrations must not be contacted without opt-in")
	}
	for _, step := range []string{StepTasks, StepFollowup} {
		in, ok := result.Integration(step)
		if !ok || in.Status != IntegrationSkipped {
			t.Fatalf("expected %s skipped, got %+v", step, in)
		}
	}
	h.assertCleanedUp(t)
	if len(h.notifier.events) != 1 || h.notifier.events[0] != notifications.EventRunCompleted {
		t.Fatalf("unexpected notifications: %v", h.notifier.events)
	}
}

func TestProcessOptInWithoutCredentialsIsSkipped(t *testing.T) {
	h := newHarness(t)
	result, err := h.processor(t).Process(context.Background(), h.input, Options{CreateTasks: true, ScheduleFollowup: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	in, _ := result.Integration(StepTasks)
	if in.Status != IntegrationSkipped || !strings.Contains(in.Detail, "not configured") {
		t.Fatalf("unexpected tasks annotation: %+v", in)
	}
	if h.tasks.calls != 0 {
		t.Fatal("disabled sink must not be called")
	}
}

func TestProcessCreatesTasksAndFollowup(t *testing.T) {
	h := newHarness(t)
	h.tasks.enabled = true
	h.calendar.enabled = true
	result, err := h.processor(t).Process(context.Background(), h.input, Options{CreateTasks: true, ScheduleFollowup: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(result.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %+v", result.Tasks)
	}
	if result.CalendarEvent == nil || result.CalendarEvent.ID != "evt-1" {
		t.Fatalf("expected calendar event, got %+v", result.CalendarEvent)
	}
	if h.calendar.got.Start.DateTime != "2024-03-16T10:00:00Z" {
		t.Fatalf("unexpected follow-up start: %s", h.calendar.got.Start.DateTime)
	}
	if !strings.HasPrefix(h.calendar.got.Summary, "Follow-up: Short summary.") {
		t.Fatalf("unexpected follow-up title: %q", h.calendar.got.Summary)
	}
	for _, step := range []string{StepTasks, StepFollowup} {
		if in, _ := result.Integration(step); in.Status != IntegrationCompleted {
			t.Fatalf("expected %s completed, got %+v", step, in)
		}
	}
}

func TestProcessIntegrationFailuresAreAnnotated(t *testing.T) {
	h := newHarness(t)
	h.tasks.enabled = true
	h.tasks.err = services.Wrap(services.ErrIntegration, "integrating", "create task", "status 500", nil)
	h.calendar.enabled = true
	h.calendar.err = errors.New("calendar down")
	result, err := h.processor(t).Process(context.Background(), h.input, Options{CreateTasks: true, ScheduleFollowup: true})
	if err != nil {
		t.Fatalf("integration failures must not fail the run: %v", err)
	}
	if result.Tasks == nil || len(result.Tasks) != 0 {
		t.Fatalf("expected empty tasks, got %#v", result.Tasks)
	}
	if result.CalendarEvent != nil {
		t.Fatal("expected no calendar event")
	}
	for _, step := range []string{StepTasks, StepFollowup} {
		if in, _ := result.Integration(step); in.Status != IntegrationFailed || in.Detail == "" {
			t.Fatalf("expected %s failed with detail, got %+v", step, in)
		}
	}
	if result.Summary == "" {
		t.Fatal("expected summary preserved")
	}
}

func TestProcessTranscriptionFailure(t *testing.T) {
	h := newHarness(t)
	h.deps.Transcriber = fakeTranscriber{err: services.Wrap(services.ErrTranscription, "transcribing", "transcribe", "empty transcript", nil)}
	result, err := h.processor(t).Process(context.Background(), h.input, Options{CreateTasks: true})
	if result != nil {
		t.Fatal("expected no result")
	}
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
	h.assertCleanedUp(t)
	if len(h.notifier.events) != 1 || h.notifier.events[0] != notifications.EventRunFailed {
		t.Fatalf("unexpected notifications: %v", h.notifier.events)
	}
}

func TestProcessNormalizationFailureCleansUp(t *testing.T) {
	h := newHarness(t)
	h.pre.err = services.Wrap(services.ErrNormalization, "normalizing", "decode", "bad header", nil)
	_, err := h.processor(t).Process(context.Background(), h.input, Options{})
	if !errors.Is(err, services.ErrNormalization) {
		t.Fatalf("expected normalization error, got %v", err)
	}
	if len(h.pre.files) != 1 {
		t.Fatalf("expected converted artifact written, got %v", h.pre.files)
	}
	h.assertCleanedUp(t)
}

func TestProcessKeepsWAVInput(t *testing.T) {
	h := newHarness(t)
	wav := filepath.Join(filepath.Dir(h.input), "meeting.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := h.processor(t).Process(context.Background(), wav, Options{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, err := os.Stat(wav); err != nil {
		t.Fatalf("wav input removed: %v", err)
	}
}

func TestProcessCancelledBeforeStart(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.processor(t).Process(ctx, h.input, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(h.pre.files) != 0 {
		t.Fatal("no stage should run after cancellation")
	}
	h.assertCleanedUp(t)
}

func TestPoolRunMatchesBlocking(t *testing.T) {
	h := newHarness(t)
	h.tasks.enabled = true
	p := h.processor(t)
	opts := Options{CreateTasks: true}

	blocking, err := p.Process(context.Background(), h.input, opts)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	pool := NewPool(p, 1)
	defer pool.Close()
	async, err := pool.Run(context.Background(), h.input, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if blocking.RunID == async.RunID {
		t.Fatal("expected distinct run ids")
	}
	async.RunID = blocking.RunID
	if !reflect.DeepEqual(blocking, async) {
		t.Fatalf("results differ:\n%+v\n%+v", blocking, async)
	}
}

func TestTimeoutDuringTranscriptionCleansUpInBothModes(t *testing.T) {
	tests := []struct {
		name string
		run  func(context.Context, *Processor, string) (*Result, error)
	}{
		{"blocking", func(ctx context.Context, p *Processor, input string) (*Result, error) {
			return p.Process(ctx, input, Options{})
		}},
		{"pool", func(ctx context.Context, p *Processor, input string) (*Result, error) {
			pool := NewPool(p, 1)
			defer pool.Close()
			return pool.Run(ctx, input, Options{})
		}},
	}
	var messages []string
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.deps.Transcriber = fakeTranscriber{text: transcript, delay: 200 * time.Millisecond}
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			result, err := tc.run(ctx, h.processor(t), h.input)
			if result != nil {
				t.Fatal("expected no result")
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("expected deadline error, got %v", err)
			}
			if !strings.Contains(err.Error(), "summarizing") {
				t.Fatalf("expected error to name the stage that was not started, got %v", err)
			}
			messages = append(messages, err.Error())
			h.assertCleanedUp(t)
		})
	}
	if len(messages) == 2 && messages[0] != messages[1] {
		t.Fatalf("modes disagree: %q vs %q", messages[0], messages[1])
	}
}

func TestConvertedArtifactRemovedBeforeTranscription(t *testing.T) {
	h := newHarness(t)
	h.deps.Transcriber = fakeTranscriber{text: transcript, check: func(in audio.Artifact) error {
		if filepath.Base(in.Path) != "normalized.wav" {
			return fmt.Errorf("transcribing %s, want the normalized artifact", in.Path)
		}
		converted := filepath.Join(filepath.Dir(in.Path), "converted.wav")
		if _, err := os.Stat(converted); !os.IsNotExist(err) {
			return fmt.Errorf("converted artifact still present during transcription: %v", err)
		}
		return nil
	}}
	if _, err := h.processor(t).Process(context.Background(), h.input, Options{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	h.assertCleanedUp(t)
}

func TestNewProcessorRequiresCoreDependencies(t *testing.T) {
	_, err := NewProcessor(Settings{StagingDir: t.TempDir()}, Dependencies{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
