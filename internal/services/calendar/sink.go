package calendar

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

	"echoes/internal/config"
	"echoes/internal/services"
)

// HTTPDoer describes the HTTP client used by the sink.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// EventTime is a timestamp with its zone name.
type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Attendee is an invited participant.
type Attendee struct {
	Email string `json:"email"`
}

// EventRequest is the body posted to the calendar service.
type EventRequest struct {
	Summary   string     `json:"summary"`
	Start     EventTime  `json:"start"`
	End       EventTime  `json:"end"`
	Attendees []Attendee `json:"attendees"`
}

// Event is the event as returned by the calendar service.
type Event struct {
	ID        string     `json:"id,omitempty"`
	Status    string     `json:"status,omitempty"`
	HTMLLink  string     `json:"htmlLink,omitempty"`
	Summary   string     `json:"summary,omitempty"`
	Start     *EventTime `json:"start,omitempty"`
	End       *EventTime `json:"end,omitempty"`
	Attendees []Attendee `json:"attendees,omitempty"`
}

// NewEventRequest builds a request spanning start to end, expressed in UTC.
func NewEventRequest(summary string, start, end time.Time, attendees []string) EventRequest {
	req := EventRequest{
		Summary:   summary,
		Start:     utcTime(start),
		End:       utcTime(end),
		Attendees: make([]Attendee, 0, len(attendees)),
	}
	for _, email := range attendees {
		req.Attendees = append(req.Attendees, Attendee{Email: email})
	}
	return req
}

func utcTime(t time.Time) EventTime {
	return EventTime{DateTime: t.UTC().Format(time.RFC3339), TimeZone: "UTC"}
}

// Sink creates calendar events.
type Sink interface {
	Enabled() bool
	CreateEvent(ctx context.Context, req EventRequest) (*Event, error)
}

// ErrDisabled is returned by the disabled sink.
var ErrDisabled = errors.New("calendar not configured")

type disabledSink struct{}

func (disabledSink) Enabled() bool { return false }

func (disabledSink) CreateEvent(context.Context, EventRequest) (*Event, error) {
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

// NewConfiguredSink returns the HTTP sink when cfg enables scheduling.
func NewConfiguredSink(cfg *config.Config) Sink {
	if cfg == nil || !cfg.CalendarEnabled() {
		return NewDisabledSink()
	}
	timeout := time.Duration(cfg.Calendar.TimeoutSeconds) * time.Second
	return NewHTTPSink(cfg.CalendarBaseURL(), cfg.Calendar.APIKey, &http.Client{Timeout: timeout})
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

func (s *httpSink) CreateEvent(ctx context.Context, body EventRequest) (*Event, error) {
	event, err := s.post(ctx, body)
	if err != nil {
		return nil, services.Wrap(services.ErrIntegration, "integrating", "create event", body.Summary, err)
	}
	return event, nil
}

func (s *httpSink) post(ctx context.Context, body EventRequest) (*Event, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/events", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build event request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read event response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("calendar returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode event response: %w", err)
	}
	return &event, nil
}
