package workflow

import (
	"context"
	"fmt"

	"echoes/internal/logging"
	"echoes/internal/services/calendar"
	"echoes/internal/services/tasks"
)

// integrate runs the optional steps. Failures are annotated on result and
// never returned.
func (p *Processor) integrate(ctx context.Context, r *run, result *Result) {
	result.Integrations = []Integration{
		p.createTasks(ctx, r, result),
		p.scheduleFollowup(ctx, r, result),
	}
	for _, in := range result.Integrations {
		p.deps.Metrics.Integration(in.Step, string(in.Status))
	}
}

func (p *Processor) createTasks(ctx context.Context, r *run, result *Result) Integration {
	step := Integration{Step: StepTasks}
	switch {
	case !r.opts.CreateTasks:
		return skipped(step, "not requested")
	case !p.deps.Tasks.Enabled():
		return skipped(step, "task manager not configured")
	case len(result.ActionItems) == 0:
		return skipped(step, "no action items")
	}

	created, err := p.deps.Tasks.CreateTasks(ctx, result.ActionItems)
	if err != nil {
		result.Tasks = []tasks.Task{}
		p.warnIntegration(r, step.Step, err)
		step.Status = IntegrationFailed
		step.Detail = err.Error()
		return step
	}
	result.Tasks = created
	step.Status = IntegrationCompleted
	step.Detail = fmt.Sprintf("%d tasks created", len(created))
	r.logger.Info("tasks created", logging.Int("count", len(created)))
	return step
}

func (p *Processor) scheduleFollowup(ctx context.Context, r *run, result *Result) Integration {
	step := Integration{Step: StepFollowup}
	switch {
	case !r.opts.ScheduleFollowup:
		return skipped(step, "not requested")
	case !p.deps.Calendar.Enabled():
		return skipped(step, "calendar not configured")
	}

	req := calendar.Followup(p.deps.Now(), result.Summary, result.Transcript, p.settings.FollowupHour, p.settings.FollowupDuration)
	event, err := p.deps.Calendar.CreateEvent(ctx, req)
	if err != nil {
		p.warnIntegration(r, step.Step, err)
		step.Status = IntegrationFailed
		step.Detail = err.Error()
		return step
	}
	result.CalendarEvent = event
	step.Status = IntegrationCompleted
	step.Detail = fmt.Sprintf("starts %s", req.Start.DateTime)
	r.logger.Info("follow-up scheduled",
		logging.String("start", req.Start.DateTime),
		logging.Int("attendees", len(req.Attendees)),
	)
	return step
}

func skipped(step Integration, reason string) Integration {
	step.Status = IntegrationSkipped
	step.Detail = reason
	return step
}

func (p *Processor) warnIntegration(r *run, step string, err error) {
	logging.WarnWithContext(r.logger, "integration failed", "integration_failure",
		logging.String("step", step),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the "+step+" service credentials and URL"),
		logging.String(logging.FieldImpact, "the run completes without this integration"),
	)
}
