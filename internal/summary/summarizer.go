package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"echoes/internal/logging"
	"echoes/internal/services"
	"echoes/internal/textutil"
)

// KeyPointSentenceLimit is the largest sentence count returned verbatim by
// KeyPoints.
const KeyPointSentenceLimit = 5

// Backend produces one summary for text within the word bounds.
type Backend interface {
	Name() string
	Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error)
}

// Result is the summarization stage output.
type Result struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// Summarizer applies length bounds and the key-point rule on top of a backend.
type Summarizer struct {
	backend   Backend
	minLength int
	maxLength int
	logger    *slog.Logger
}

// New builds a Summarizer. minLength and maxLength are the default bounds
// used by KeyPoints.
func New(backend Backend, minLength, maxLength int, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		backend:   backend,
		minLength: minLength,
		maxLength: maxLength,
		logger:    logging.NewComponentLogger(logger, "summary"),
	}
}

// Backend returns the active backend name.
func (s *Summarizer) Backend() string {
	return s.backend.Name()
}

// Summarize returns a summary of text between minLength and maxLength words.
func (s *Summarizer) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", services.Wrap(services.ErrSummarization, "summarizing", s.backend.Name(), "empty input", nil)
	}
	if minLength < 0 || maxLength <= 0 || minLength > maxLength {
		return "", services.Wrap(services.ErrSummarization, "summarizing", s.backend.Name(),
			fmt.Sprintf("invalid bounds %d..%d", minLength, maxLength), nil)
	}
	start := time.Now()
	out, err := s.backend.Summarize(ctx, text, minLength, maxLength)
	if err != nil {
		return "", services.Wrap(services.ErrSummarization, "summarizing", s.backend.Name(), "backend request", err)
	}
	out = truncateWords(strings.TrimSpace(out), maxLength)
	if out == "" {
		return "", services.Wrap(services.ErrSummarization, "summarizing", s.backend.Name(), "empty summary", nil)
	}
	s.logger.Debug("summary produced",
		logging.String("backend", s.backend.Name()),
		logging.Int("input_words", len(strings.Fields(text))),
		logging.Int("summary_words", len(strings.Fields(out))),
		logging.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// KeyPoints returns the key points of text.
func (s *Summarizer) KeyPoints(ctx context.Context, text string) ([]string, error) {
	sentences := textutil.SplitPeriods(text)
	if len(sentences) == 0 {
		return nil, services.Wrap(services.ErrSummarization, "summarizing", "key points", "empty input", nil)
	}
	if len(sentences) <= KeyPointSentenceLimit {
		return sentences, nil
	}
	condensed, err := s.Summarize(ctx, strings.Join(sentences, " "), s.minLength, s.maxLength)
	if err != nil {
		return nil, err
	}
	return textutil.SplitPeriods(condensed), nil
}

// Run produces the summary and key points for a transcript.
func (s *Summarizer) Run(ctx context.Context, transcript string) (Result, error) {
	text, err := s.Summarize(ctx, transcript, s.minLength, s.maxLength)
	if err != nil {
		return Result{}, err
	}
	points, err := s.KeyPoints(ctx, transcript)
	if err != nil {
		return Result{}, err
	}
	return Result{Summary: text, KeyPoints: points}, nil
}

// truncateWords cuts text to at most limit words, preferring to end on a
// sentence boundary inside the limit.
func truncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if limit <= 0 || len(words) <= limit {
		return text
	}
	cut := strings.Join(words[:limit], " ")
	if idx := strings.LastIndexAny(cut, ".!?"); idx > len(cut)/2 {
		return cut[:idx+1]
	}
	return cut
}
