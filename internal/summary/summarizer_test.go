package summary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"echoes/internal/config"
	"echoes/internal/services"
	"echoes/internal/services/llm"
)

type recordingCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (r *recordingCompleter) Complete(_ context.Context, _ string, user string) (string, error) {
	r.prompts = append(r.prompts, user)
	return r.reply, r.err
}

func newTestSummarizer(c *recordingCompleter) *Summarizer {
	return New(NewPromptBackend("stub", c), 30, 130, nil)
}

func TestKeyPointsShortTextReturnsSentencesVerbatim(t *testing.T) {
	completer := &recordingCompleter{reply: "unused."}
	text := "We need to prepare slides. Alice will review. Ship on Friday."
	got, err := newTestSummarizer(completer).KeyPoints(context.Background(), text)
	if err != nil {
		t.Fatalf("KeyPoints returned error: %v", err)
	}
	want := []string{"We need to prepare slides", "Alice will review", "Ship on Friday"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("KeyPoints = %q, want %q", got, want)
	}
	if len(completer.prompts) != 0 {
		t.Fatal("short text must not call the backend")
	}
}

func TestKeyPointsLongTextSplitsSummary(t *testing.T) {
	completer := &recordingCompleter{reply: "The team planned the launch. Owners were assigned."}
	text := "One. Two. Three. Four. Five. Six."
	got, err := newTestSummarizer(completer).KeyPoints(context.Background(), text)
	if err != nil {
		t.Fatalf("KeyPoints returned error: %v", err)
	}
	want := []string{"The team planned the launch", "Owners were assigned"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("KeyPoints = %q, want %q", got, want)
	}
	if len(completer.prompts) != 1 || !strings.Contains(completer.prompts[0], "One Two Three Four Five Six") {
		t.Fatalf("expected joined sentences in prompt, got %q", completer.prompts)
	}
}

func TestKeyPointsBoundaryAtFiveSentences(t *testing.T) {
	completer := &recordingCompleter{reply: "x."}
	got, err := newTestSummarizer(completer).KeyPoints(context.Background(), "A. B. C. D. E.")
	if err != nil {
		t.Fatalf("KeyPoints returned error: %v", err)
	}
	if len(got) != 5 || len(completer.prompts) != 0 {
		t.Fatalf("expected five verbatim sentences, got %q", got)
	}
}

func TestSummarizeErrors(t *testing.T) {
	tests := []struct {
		name      string
		completer *recordingCompleter
		text      string
	}{
		{"empty input", &recordingCompleter{reply: "x"}, "   "},
		{"backend unavailable", &recordingCompleter{err: errors.New("dial tcp: refused")}, "Some text."},
		{"empty reply", &recordingCompleter{reply: " "}, "Some text."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestSummarizer(tc.completer).Summarize(context.Background(), tc.text, 30, 130)
			if !errors.Is(err, services.ErrSummarization) {
				t.Fatalf("expected ErrSummarization, got %v", err)
			}
		})
	}
}

func TestSummarizePromptCarriesBounds(t *testing.T) {
	completer := &recordingCompleter{reply: "Summary."}
	if _, err := newTestSummarizer(completer).Summarize(context.Background(), "Text.", 10, 40); err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if !strings.Contains(completer.prompts[0], "10 to 40 words") {
		t.Fatalf("prompt missing bounds: %q", completer.prompts[0])
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		text  string
		limit int
		want  string
	}{
		{"short text.", 5, "short text."},
		{"one two three. four five six", 4, "one two three."},
		{"a b c d e f", 3, "a b c"},
	}
	for _, tc := range tests {
		if got := truncateWords(tc.text, tc.limit); got != tc.want {
			t.Fatalf("truncateWords(%q, %d) = %q, want %q", tc.text, tc.limit, got, tc.want)
		}
	}
}

func TestRunProducesSummaryAndKeyPoints(t *testing.T) {
	completer := &recordingCompleter{reply: "Launch planned."}
	result, err := newTestSummarizer(completer).Run(context.Background(), "We will launch. Bob must test.")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Summary != "Launch planned." || len(result.KeyPoints) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestNewFromConfigLLMBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": "The meeting covered the launch."}}},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Summarization.APIKey = "k"
	cfg.Summarization.BaseURL = server.URL
	s, err := NewFromConfig(&cfg, nil, llm.WithRetryBackoff(time.Millisecond, time.Millisecond))
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if s.Backend() != "llm" {
		t.Fatalf("unexpected backend %q", s.Backend())
	}
	got, err := s.Summarize(context.Background(), "Long transcript.", 30, 130)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if got != "The meeting covered the launch." {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestNewFromConfigGeminiRequiresKey(t *testing.T) {
	cfg := config.Default()
	cfg.Summarization.Backend = "gemini"
	if _, err := NewFromConfig(&cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
