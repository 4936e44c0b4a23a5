// Package eventstore keeps an append-only history of dispatched builds.
package eventstore

import (
	"context"
	"time"
)

// Store persists build events. Events are never updated or deleted; build
// summaries are projections over them.
type Store interface {
	Append(ctx context.Context, event Event) error
	// BuildEvents returns the events of one build in append order.
	BuildEvents(ctx context.Context, buildID string) ([]Event, error)
	// EventsBetween returns every event with start <= timestamp < end.
	EventsBetween(ctx context.Context, start, end time.Time) ([]Event, error)
	Close() error
}
