package tasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"echoes/internal/actions"
	"echoes/internal/config"
	"echoes/internal/services"
	"echoes/internal/services/tasks"
)

var sampleItems = []actions.Item{
	{Action: "schedule", Context: "We need to schedule a meeting.", Priority: actions.PriorityMedium},
	{Action: "prepare", Context: "John will prepare the report.", Priority: actions.PriorityMedium},
}

func TestCreateTasksPostsEachItemInOrder(t *testing.T) {
	var received []tasks.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth %q", got)
		}
		var body tasks.Request
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		received = append(received, body)
		_, _ = fmt.Fprintf(w, `{"id": %d, "status": "open", "title": %q}`, len(received), body.Title)
	}))
	defer server.Close()

	sink := tasks.NewHTTPSink(server.URL+"/api/", "key", server.Client())
	created, err := sink.CreateTasks(context.Background(), sampleItems)
	if err != nil {
		t.Fatalf("CreateTasks returned error: %v", err)
	}
	if len(created) != 2 || created[0].ID != "1" || created[1].ID != "2" || created[1].Status != "open" {
		t.Fatalf("unexpected tasks: %+v", created)
	}
	if received[0].Title != "schedule" || received[0].Description != sampleItems[0].Context || received[0].Priority != "medium" {
		t.Fatalf("unexpected request body: %+v", received[0])
	}
}

func TestCreateTasksKeepsNumericIDsExact(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"beyond float precision", `{"id": 9007199254740993, "status": "open"}`, "9007199254740993"},
		{"fractional", `{"id": 12.5, "status": "open"}`, "12.5"},
		{"string", `{"id": " abc ", "status": "open"}`, "abc"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, tc.body)
			}))
			defer server.Close()

			sink := tasks.NewHTTPSink(server.URL, "key", server.Client())
			created, err := sink.CreateTasks(context.Background(), sampleItems[:1])
			if err != nil {
				t.Fatalf("CreateTasks returned error: %v", err)
			}
			if created[0].ID != tc.want {
				t.Fatalf("id = %q, want %q", created[0].ID, tc.want)
			}
		})
	}
}

func TestCreateTasksFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		}},
		{"missing status", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"t-1"}`))
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()
			created, err := tasks.NewHTTPSink(server.URL, "key", nil).CreateTasks(context.Background(), sampleItems)
			if !errors.Is(err, services.ErrIntegration) {
				t.Fatalf("expected ErrIntegration, got %v", err)
			}
			if created != nil {
				t.Fatalf("expected no tasks on failure, got %+v", created)
			}
		})
	}
}

func TestCreateTasksStopsAtFirstFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"id":"x","status":"open"}`))
	}))
	defer server.Close()

	if _, err := tasks.NewHTTPSink(server.URL, "key", nil).CreateTasks(context.Background(), sampleItems); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one call, got %d", calls.Load())
	}
}

func TestNewConfiguredSinkGatesOnCredential(t *testing.T) {
	cfg := config.Default()
	if tasks.NewConfiguredSink(&cfg).Enabled() {
		t.Fatal("expected disabled sink without api key")
	}
	cfg.Tasks.APIKey = "key"
	cfg.Tasks.BaseURL = "http://localhost:9000"
	if !tasks.NewConfiguredSink(&cfg).Enabled() {
		t.Fatal("expected live sink with api key")
	}
	if _, err := tasks.NewDisabledSink().CreateTasks(context.Background(), sampleItems); !errors.Is(err, tasks.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
