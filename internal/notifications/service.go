package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"echoes/internal/config"
)

const userAgent = "echoes/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventRunCompleted Event = "run_completed"
	EventRunFailed    Event = "run_failed"
	EventWatchStarted Event = "watch_started"
	EventTest         Event = "test"
)

// Payload carries event fields. Keys used per event:
//   - run_completed: source, actionItems (int), tasks (int), followup (bool), duration (time.Duration)
//   - run_failed: source, error, stage
//   - watch_started: dir
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventRunCompleted: cfg.Notifications.RunCompleted,
			EventRunFailed:    cfg.Notifications.RunFailed,
			EventWatchStarted: true,
			EventTest:         true,
		},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, data Payload) (payload, bool) {
	switch event {
	case EventRunCompleted:
		source := stringField(data, "source")
		message := fmt.Sprintf("✅ Summary ready: %s\nAction items: %d", source, intField(data, "actionItems"))
		if tasks := intField(data, "tasks"); tasks > 0 {
			message += fmt.Sprintf("\nTasks created: %d", tasks)
		}
		if followup, _ := data["followup"].(bool); followup {
			message += "\nFollow-up scheduled"
		}
		if d, ok := data["duration"].(time.Duration); ok && d > 0 {
			message += fmt.Sprintf("\nTook %s", d.Round(time.Second))
		}
		return payload{
			title:   "echoes - Summary Ready",
			message: message,
			tags:    []string{"echoes", "run", "completed"},
		}, true
	case EventRunFailed:
		var builder strings.Builder
		builder.WriteString("❌ Failed")
		if stage := stringField(data, "stage"); stage != "" {
			builder.WriteString(" while ")
			builder.WriteString(stage)
		}
		builder.WriteString(": ")
		builder.WriteString(stringField(data, "source"))
		if errText := stringField(data, "error"); errText != "" {
			builder.WriteString("\n")
			builder.WriteString(errText)
		}
		return payload{
			title:    "echoes - Error",
			message:  builder.String(),
			tags:     []string{"echoes", "error", "alert"},
			priority: "high",
		}, true
	case EventWatchStarted:
		return payload{
			title:    "echoes - Watching",
			message:  fmt.Sprintf("👀 Watching %s for recordings", stringField(data, "dir")),
			tags:     []string{"echoes", "watch"},
			priority: "low",
		}, true
	case EventTest:
		return payload{
			title:    "echoes - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"echoes", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func stringField(data Payload, key string) string {
	switch v := data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func intField(data Payload, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
