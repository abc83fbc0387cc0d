package speechapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Minute

// Config contains transcription endpoint settings.
type Config struct {
	Endpoint       string
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// Segment is a timed piece of the transcript, present when the endpoint
// returns verbose JSON.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Response is the decoded transcription payload.
type Response struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// StatusError reports a non-2xx response from the endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("speech api: http %d: %s", e.StatusCode, e.Body)
}

// Client posts audio files as multipart form uploads.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Endpoint == "" {
		return nil, errors.New("speech api: endpoint required")
	}
	if httpClient == nil {
		timeout := defaultTimeout
		if cfg.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

// Transcribe uploads the file at path. language is an ISO 639-1 hint and
// may be empty.
func (c *Client) Transcribe(ctx context.Context, path, language string) (Response, error) {
	var result Response

	body, contentType, err := c.buildForm(path, language)
	if err != nil {
		return result, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, body)
	if err != nil {
		return result, fmt.Errorf("speech api: new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, fmt.Errorf("speech api: request: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, fmt.Errorf("speech api: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return result, fmt.Errorf("speech api: decode response: %w", err)
	}
	result.Text = strings.TrimSpace(result.Text)
	return result, nil
}

func (c *Client) buildForm(path, language string) (io.Reader, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("speech api: open audio: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := [][2]string{
		{"model", c.cfg.Model},
		{"response_format", "verbose_json"},
		{"language", language},
	}
	for _, field := range fields {
		if field[1] == "" {
			continue
		}
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("speech api: write field %s: %w", field[0], err)
		}
	}
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("speech api: create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("speech api: copy audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("speech api: close form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
