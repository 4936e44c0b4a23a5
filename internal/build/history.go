package build

import (
	"context"

	"git.home.luguber.info/inful/blogbuilder/internal/eventstore"
	"git.home.luguber.info/inful/blogbuilder/internal/notify"
	"git.home.luguber.info/inful/blogbuilder/internal/observability"
)

func (b *Builder) recordStarted(ctx context.Context, report *Report) {
	if b.history == nil {
		return
	}
	event, err := eventstore.NewBuildStarted(report.BuildID, eventstore.BuildStartedPayload{
		Kind:    string(report.Kind),
		Trigger: report.Trigger,
	})
	if err == nil {
		err = b.history.Append(ctx, event)
	}
	if err != nil {
		observability.WarnContext(ctx, "Failed to record build start", "error", err)
	}
}

// recordFinished publishes the outcome of a run to metrics, the history store
// and, for successful aggregate runs, the notifier.
func (b *Builder) recordFinished(ctx context.Context, report *Report) {
	kind := string(report.Kind)
	b.recorder.ObserveBuildDuration(kind, report.Duration)
	b.recorder.IncBuildOutcome(kind, report.Outcome())
	if report.Kind.Aggregate() && report.Err == nil {
		b.recorder.AddPosts(report.Posts, len(report.Skipped))
	}

	if report.Err != nil {
		observability.ErrorContext(ctx, "Build failed",
			"stage", string(report.FailedStage),
			"duration", report.Duration,
			"error", report.Err)
	} else {
		observability.InfoContext(ctx, "Build complete",
			"status", string(report.Status),
			"duration", report.Duration,
			"artifacts", len(report.Artifacts))
	}

	b.appendOutcome(ctx, report)

	if report.Kind.Aggregate() && report.Status.IsSuccess() {
		summary := notify.BuildSummary{
			BuildID:   report.BuildID,
			Kind:      kind,
			Trigger:   report.Trigger,
			Posts:     report.Posts,
			Skipped:   len(report.Skipped),
			Duration:  report.Duration.String(),
			Finished:  report.EndTime,
			SiteURL:   b.cfg.BaseURL(),
			Artifacts: report.Artifacts,
		}
		if err := b.notifier.Publish(ctx, summary); err != nil {
			observability.WarnContext(ctx, "Failed to publish build summary", "error", err)
		}
	}
}

func (b *Builder) appendOutcome(ctx context.Context, report *Report) {
	if b.history == nil {
		return
	}
	var (
		event eventstore.Event
		err   error
	)
	if report.Err != nil {
		event, err = eventstore.NewBuildFailed(report.BuildID, eventstore.BuildFailedPayload{
			Kind:       string(report.Kind),
			Stage:      string(report.FailedStage),
			Error:      report.Err.Error(),
			DurationMS: report.Duration.Milliseconds(),
		})
	} else {
		event, err = eventstore.NewBuildCompleted(report.BuildID, eventstore.BuildCompletedPayload{
			Kind:       string(report.Kind),
			Outcome:    string(report.Outcome()),
			DurationMS: report.Duration.Milliseconds(),
			Posts:      report.Posts,
			Skipped:    len(report.Skipped),
		})
	}
	if err == nil {
		err = b.history.Append(ctx, event)
	}
	if err != nil {
		observability.WarnContext(ctx, "Failed to record build outcome", "error", err)
	}
}
