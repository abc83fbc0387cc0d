package summary

import (
	"context"
	"fmt"
	"log/slog"

	"echoes/internal/config"
	"echoes/internal/services"
	"echoes/internal/services/gemini"
	"echoes/internal/services/llm"
)

const systemPrompt = `You summarize meeting and voice-note transcripts.
Write plain prose in complete sentences, each ending with a period.
Do not use lists, headings, quotes or markdown.
Do not invent facts that are not in the transcript.`

// Completer sends a system and user prompt and returns the reply.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// PromptBackend summarizes with a chat-style Completer.
type PromptBackend struct {
	name      string
	completer Completer
}

// NewPromptBackend wraps completer under name.
func NewPromptBackend(name string, completer Completer) *PromptBackend {
	return &PromptBackend{name: name, completer: completer}
}

func (b *PromptBackend) Name() string { return b.name }

func (b *PromptBackend) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	return b.completer.Complete(ctx, systemPrompt, userPrompt(text, minLength, maxLength))
}

func userPrompt(text string, minLength, maxLength int) string {
	return fmt.Sprintf("Summarize the transcript below in %d to %d words.\n\nTranscript:\n%s", minLength, maxLength, text)
}

// NewFromConfig builds the Summarizer selected by cfg.Summarization.Backend.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...llm.Option) (*Summarizer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "summarizing", "configure", "config required", nil)
	}
	sc := cfg.Summarization
	var completer Completer
	name := sc.Backend
	switch sc.Backend {
	case "gemini":
		client, err := gemini.NewClient(gemini.Config{
			APIKey:         sc.APIKey,
			Model:          sc.Model,
			BaseURL:        sc.BaseURL,
			TimeoutSeconds: sc.TimeoutSeconds,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "summarizing", "configure", "gemini backend", err)
		}
		completer = client
	case "llm", "":
		name = "llm"
		completer = llm.NewClient(llm.Config{
			APIKey:         sc.APIKey,
			BaseURL:        sc.BaseURL,
			Model:          sc.Model,
			Referer:        sc.Referer,
			Title:          sc.Title,
			TimeoutSeconds: sc.TimeoutSeconds,
		}, append([]llm.Option{llm.WithLogger(logger)}, opts...)...)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "summarizing", "configure", fmt.Sprintf("unknown backend %q", sc.Backend), nil)
	}
	return New(NewPromptBackend(name, completer), sc.MinLength, sc.MaxLength, logger), nil
}
