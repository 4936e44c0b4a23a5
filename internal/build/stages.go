package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/observability"
)

type stageFunc func(ctx context.Context) error

type stageDef struct {
	Name StageName
	Fn   stageFunc
}

// runStages executes stages in order, recording timing and stopping on the
// first error.
func (b *Builder) runStages(ctx context.Context, report *Report, stages []stageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			report.Status = StatusCancelled
			report.FailedStage = st.Name
			b.recorder.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return ctx.Err()
		default:
		}

		stageCtx := observability.WithStage(ctx, string(st.Name))
		t0 := time.Now()
		err := st.Fn(stageCtx)
		dur := time.Since(t0)

		report.StageDurations[st.Name] = dur
		b.recorder.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			report.FailedStage = st.Name
			b.recorder.IncStageResult(string(st.Name), metrics.ResultFatal)
			observability.ErrorContext(stageCtx, "Stage failed", "duration", dur, "error", err)
			return err
		}
		b.recorder.IncStageResult(string(st.Name), metrics.ResultSuccess)
		observability.DebugContext(stageCtx, "Stage complete", "duration", dur)
	}
	return nil
}
