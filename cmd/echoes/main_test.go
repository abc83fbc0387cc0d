package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"echoes/internal/report"
	"echoes/internal/testsupport"
	"echoes/internal/workflow"
)

const meetingTranscript = "We need to finalize the budget. Sarah will send the slides to the team."

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"TASK_MANAGER_API_KEY", "TASK_MANAGER_URL", "CALENDAR_API_KEY", "CALENDAR_SERVICE",
		"DEFAULT_LANGUAGE", "SUMMARIZER_MODEL", "MIN_SUMMARY_LENGTH", "MAX_SUMMARY_LENGTH",
		"LOG_LEVEL", "OPENROUTER_API_KEY", "GEMINI_API_KEY", "TRANSCRIPTION_API_KEY", "HF_TOKEN",
	} {
		t.Setenv(name, "")
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// backendServers starts a speech API and a chat completions API and returns a
// config file that points at them.
func backendServers(t *testing.T) string {
	t.Helper()

	speech := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse upload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"text": meetingTranscript, "language": "en"})
	}))
	t.Cleanup(speech.Close)

	chat := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": "The team agreed to finalize the budget and share slides."}}},
		})
	}))
	t.Cleanup(chat.Close)

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", base)
	clearEnv(t)

	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`
[paths]
staging_dir = %q
log_dir = %q

[transcription]
backend = "http"
http_url = %q

[summarization]
backend = "llm"
api_key = "test"
base_url = %q
min_length = 3
max_length = 40

[workflow]
min_free_mib = 0

[logging]
level = "error"
`, cfg.Paths.StagingDir, cfg.Paths.LogDir, speech.URL, chat.URL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestProcessWritesSummaryNextToInput(t *testing.T) {
	configPath := backendServers(t)
	input := filepath.Join(filepath.Dir(configPath), "meeting.wav")
	testsupport.WriteTone(t, input, 0.5, 0.3)

	out, err := runCLI(t, "--config", configPath, "process", input)
	if err != nil {
		t.Fatalf("process failed: %v\n%s", err, out)
	}
	want := filepath.Join(filepath.Dir(input), "meeting_summary.json")
	if !strings.Contains(out, "Processing complete. Results saved to: "+want) {
		t.Fatalf("unexpected output: %q", out)
	}

	result, err := report.ReadJSON(want)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if result.Transcript != meetingTranscript {
		t.Fatalf("unexpected transcript %q", result.Transcript)
	}
	if !strings.Contains(result.Summary, "budget") {
		t.Fatalf("unexpected summary %q", result.Summary)
	}
	if len(result.ActionItems) == 0 {
		t.Fatal("expected action items")
	}
	if len(result.KeyPoints) != 2 {
		t.Fatalf("expected one key point per sentence, got %v", result.KeyPoints)
	}
	if result.Tasks != nil || result.CalendarEvent != nil {
		t.Fatalf("integrations were not requested: %+v", result)
	}
	if _, err := os.Stat(input); err != nil {
		t.Fatalf("wav input must be left in place: %v", err)
	}
}

func TestProcessHonoursOutputAndFormat(t *testing.T) {
	configPath := backendServers(t)
	base := filepath.Dir(configPath)
	input := filepath.Join(base, "standup.wav")
	testsupport.WriteTone(t, input, 0.5, 0.3)
	target := filepath.Join(base, "reports", "standup.xlsx")

	out, err := runCLI(t, "--config", configPath, "process", "--async", "--format", "xlsx", "--output", target, input)
	if err != nil {
		t.Fatalf("process failed: %v\n%s", err, out)
	}
	info, err := os.Stat(target)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected xlsx at %s: %v", target, err)
	}
}

func TestProcessRejectsMissingInput(t *testing.T) {
	configPath := backendServers(t)
	_, err := runCLI(t, "--config", configPath, "process", filepath.Join(filepath.Dir(configPath), "absent.mp3"))
	if err == nil || !strings.Contains(err.Error(), "input file not found") {
		t.Fatalf("expected missing input error, got %v", err)
	}
}

func TestProcessRejectsUnsupportedFormat(t *testing.T) {
	configPath := backendServers(t)
	input := filepath.Join(filepath.Dir(configPath), "notes.txt")
	testsupport.WriteFile(t, input, 16)

	_, err := runCLI(t, "--config", configPath, "process", input)
	if err == nil || !strings.Contains(err.Error(), "failed while converting") {
		t.Fatalf("expected conversion failure, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(filepath.Dir(input), "notes_summary.json")); !os.IsNotExist(statErr) {
		t.Fatal("no result file should be written on failure")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	clearEnv(t)
	path := filepath.Join(dir, "echoes", "config.toml")

	out, err := runCLI(t, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("expected path in output, got %q", out)
	}
	if _, err := runCLI(t, "config", "init", "--path", path); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, err = runCLI(t, "--config", path, "config", "validate")
	if err != nil {
		t.Fatalf("config validate failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, "Tasks enabled: no") {
		t.Fatalf("unexpected validate output: %q", out)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	configPath := backendServers(t)
	out, err := runCLI(t, "--config", configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if strings.Contains(out, `api_key = "test"`) {
		t.Fatalf("api key leaked: %s", out)
	}
	if !strings.Contains(out, "********") {
		t.Fatalf("expected redacted key, got %s", out)
	}
}

func TestStagingListEmpty(t *testing.T) {
	configPath := backendServers(t)
	out, err := runCLI(t, "--config", configPath, "staging", "list")
	if err != nil {
		t.Fatalf("staging list failed: %v", err)
	}
	if !strings.Contains(out, "No run directories found") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	configPath := backendServers(t)
	out, err := runCLI(t, "--config", configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify failed: %v", err)
	}
	if !strings.Contains(out, "Notifications disabled") {
		t.Fatalf("unexpected output %q", out)
	}
}

type stubRunner struct {
	fail map[string]bool
}

func (s stubRunner) Process(_ context.Context, path string, _ workflow.Options) (*workflow.Result, error) {
	if s.fail[filepath.Base(path)] {
		return nil, fmt.Errorf("boom")
	}
	return &workflow.Result{Source: path, Transcript: "t", Summary: "s", KeyPoints: []string{"s"}}, nil
}

func TestWatchSessionWritesResultsAndCounts(t *testing.T) {
	out := t.TempDir()
	session := newWatchSession(stubRunner{fail: map[string]bool{"bad.wav": true}}, 2, out, report.FormatJSON, workflow.Options{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	session.handle(ctx, "/inbox/good.wav")
	session.handle(ctx, "/inbox/bad.wav")
	cancel()

	processed, failed := session.drain()
	if processed != 1 || failed != 1 {
		t.Fatalf("expected 1 processed and 1 failed, got %d/%d", processed, failed)
	}
	if _, err := os.Stat(filepath.Join(out, "good_summary.json")); err != nil {
		t.Fatalf("expected result for good.wav: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "bad_summary.json")); !os.IsNotExist(err) {
		t.Fatal("failed runs must not write results")
	}

	session.handle(context.Background(), "/inbox/late.wav")
	if processed, _ := session.drain(); processed != 1 {
		t.Fatalf("closed session must not accept work, processed=%d", processed)
	}
}

func TestDescribeFailureNamesStage(t *testing.T) {
	err := describeFailure("/tmp/a.mp3", context.Canceled)
	if !strings.Contains(err.Error(), "a.mp3 stopped") {
		t.Fatalf("unexpected cancel message %q", err)
	}
}
