package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultTimeout = 60 * time.Second

// Config captures the settings required to reach the Gemini API.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL        string
	TimeoutSeconds int
}

// Client issues generate-content requests against one model.
type Client struct {
	cfg     Config
	timeout time.Duration
}

// NewClient validates cfg and returns a Client. The SDK client itself is
// created per request so a stale connection never outlives a run.
func NewClient(cfg Config) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key required")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini: model required")
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{cfg: cfg, timeout: timeout}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Complete sends the system instruction and prompt and returns the
// concatenated text parts of the first candidate.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", errors.New("gemini: prompt required")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	clientCfg := &genai.ClientConfig{
		APIKey:  c.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return "", fmt.Errorf("gemini: create client: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)}
	if system := strings.TrimSpace(systemPrompt); system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	result, err := client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(userPrompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	text := responseText(result)
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
