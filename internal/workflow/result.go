package workflow

import (
	"echoes/internal/actions"
	"echoes/internal/services/calendar"
	"echoes/internal/services/tasks"
)

// IntegrationStatus is the outcome of an optional step.
type IntegrationStatus string

const (
	IntegrationCompleted IntegrationStatus = "completed"
	IntegrationSkipped   IntegrationStatus = "skipped"
	IntegrationFailed    IntegrationStatus = "failed"
)

// Integration step names.
const (
	StepTasks    = "tasks"
	StepFollowup = "followup"
)

// Integration annotates what happened to one optional step.
type Integration struct {
	Step   string            `json:"step"`
	Status IntegrationStatus `json:"status"`
	Detail string            `json:"detail,omitempty"`
}

// Result is the output of a completed run.
type Result struct {
	RunID         string          `json:"run_id"`
	Source        string          `json:"source"`
	Transcript    string          `json:"transcript"`
	Summary       string          `json:"summary"`
	KeyPoints     []string        `json:"key_points"`
	ActionItems   []actions.Item  `json:"action_items"`
	Tasks         []tasks.Task    `json:"tasks"`
	CalendarEvent *calendar.Event `json:"calendar_event"`
	Integrations  []Integration   `json:"integrations"`
}

// Integration returns the annotation for step.
func (r *Result) Integration(step string) (Integration, bool) {
	if r == nil {
		return Integration{}, false
	}
	for _, in := range r.Integrations {
		if in.Step == step {
			return in, true
		}
	}
	return Integration{}, false
}
