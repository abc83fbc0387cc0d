package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"echoes/internal/actions"
	"echoes/internal/config"
	"echoes/internal/services"
)

// HTTPDoer describes the HTTP client used by the sink.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request is the body posted for each action item.
type Request struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Priority    actions.Priority `json:"priority"`
}

// Task is a task as acknowledged by the task manager.
type Task struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// Sink creates tasks from action items.
type Sink interface {
	Enabled() bool
	CreateTasks(ctx context.Context, items []actions.Item) ([]Task, error)
}

// ErrDisabled is returned by the disabled sink.
var ErrDisabled = errors.New("task manager not configured")

type disabledSink struct{}

func (disabledSink) Enabled() bool { return false }

func (disabledSink) CreateTasks(context.Context, []actions.Item) ([]Task, error) {
	return nil, ErrDisabled
}

// NewDisabledSink returns a sink that reports itself unavailable.
func NewDisabledSink() Sink {
	return disabledSink{}
}

type httpSink struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewConfiguredSink returns the HTTP sink when cfg enables task creation.
func NewConfiguredSink(cfg *config.Config) Sink {
	if cfg == nil || !cfg.TasksEnabled() {
		return NewDisabledSink()
	}
	timeout := time.Duration(cfg.Tasks.TimeoutSeconds) * time.Second
	return NewHTTPSink(cfg.Tasks.BaseURL, cfg.Tasks.APIKey, &http.Client{Timeout: timeout})
}

// NewHTTPSink constructs an HTTP-backed sink.
func NewHTTPSink(baseURL, apiKey string, client HTTPDoer) Sink {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpSink{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

func (s *httpSink) Enabled() bool { return true }

// CreateTasks files every item in order and stops at the first failure.
// Tasks created before a failure are not returned.
func (s *httpSink) CreateTasks(ctx context.Context, items []actions.Item) ([]Task, error) {
	created := make([]Task, 0, len(items))
	for i, item := range items {
		task, err := s.createTask(ctx, Request{
			Title:       item.Action,
			Description: item.Context,
			Priority:    item.Priority,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrIntegration, "integrating", "create task",
				fmt.Sprintf("item %d of %d (%q)", i+1, len(items), item.Action), err)
		}
		created = append(created, task)
	}
	return created, nil
}

func (s *httpSink) createTask(ctx context.Context, body Request) (Task, error) {
	var task Task
	encoded, err := json.Marshal(body)
	if err != nil {
		return task, fmt.Errorf("encode task: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/tasks", bytes.NewReader(encoded))
	if err != nil {
		return task, fmt.Errorf("build task request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return task, fmt.Errorf("post task: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return task, fmt.Errorf("read task response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return task, fmt.Errorf("task manager returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return decodeTask(payload)
}

// decodeTask requires id and status; numeric ids keep their literal text.
func decodeTask(payload []byte) (Task, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Task{}, fmt.Errorf("decode task response: %w", err)
	}
	task := Task{
		ID:          scalarString(raw["id"]),
		Status:      scalarString(raw["status"]),
		Title:       scalarString(raw["title"]),
		Description: scalarString(raw["description"]),
		Priority:    scalarString(raw["priority"]),
	}
	if task.ID == "" || task.Status == "" {
		return Task{}, fmt.Errorf("task response missing id or status: %s", strings.TrimSpace(string(payload)))
	}
	return task, nil
}

func scalarString(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case json.Number:
		return value.String()
	case bool:
		return fmt.Sprint(value)
	default:
		return ""
	}
}
