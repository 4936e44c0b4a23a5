package eventstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BuildSummary is a read model of one build reconstructed from its events.
type BuildSummary struct {
	BuildID   string        `json:"build_id"`
	Kind      string        `json:"kind"`
	Trigger   string        `json:"trigger,omitempty"`
	Status    string        `json:"status"`
	Outcome   string        `json:"outcome,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration,omitempty"`
	Posts     int           `json:"posts"`
	Skipped   int           `json:"skipped"`
	Error     string        `json:"error,omitempty"`
}

// History replays the store into build summaries, newest first, keeping at most limit.
func History(ctx context.Context, store Store, since time.Time, limit int) ([]*BuildSummary, error) {
	events, err := store.EventsBetween(ctx, since, time.Now().Add(time.Hour))
	if err != nil {
		return nil, err
	}

	builds := make(map[string]*BuildSummary)
	var order []*BuildSummary
	for _, e := range events {
		summary, ok := builds[e.BuildID]
		if !ok {
			summary = &BuildSummary{BuildID: e.BuildID, Status: StatusRunning, StartedAt: e.Timestamp}
			builds[e.BuildID] = summary
			order = append(order, summary)
		}
		apply(summary, e)
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].StartedAt.After(order[j].StartedAt) })
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	return order, nil
}

func apply(summary *BuildSummary, e Event) {
	switch e.Type {
	case TypeBuildStarted:
		var p BuildStartedPayload
		if decode(e, &p) {
			summary.Kind = p.Kind
			summary.Trigger = p.Trigger
			summary.StartedAt = e.Timestamp
		}
	case TypeBuildCompleted:
		var p BuildCompletedPayload
		if decode(e, &p) {
			summary.Kind = p.Kind
			summary.Status = StatusCompleted
			summary.Outcome = p.Outcome
			summary.Duration = time.Duration(p.DurationMS) * time.Millisecond
			summary.Posts = p.Posts
			summary.Skipped = p.Skipped
		}
	case TypeBuildFailed:
		var p BuildFailedPayload
		if decode(e, &p) {
			summary.Kind = p.Kind
			summary.Status = StatusFailed
			summary.Error = p.Error
			summary.Duration = time.Duration(p.DurationMS) * time.Millisecond
		}
	}
}

func decode(e Event, into any) bool {
	if err := json.Unmarshal(e.Payload, into); err != nil {
		slog.Warn("Skipping undecodable build event", "build_id", e.BuildID, "type", e.Type, "error", err)
		return false
	}
	return true
}
