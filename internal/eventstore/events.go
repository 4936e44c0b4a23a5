package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// BuildStartedPayload is stored with BuildStarted events.
type BuildStartedPayload struct {
	Kind    string `json:"kind"`
	Trigger string `json:"trigger,omitempty"`
}

// BuildCompletedPayload is stored with BuildCompleted events.
type BuildCompletedPayload struct {
	Kind       string `json:"kind"`
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
	Posts      int    `json:"posts"`
	Skipped    int    `json:"skipped"`
}

// BuildFailedPayload is stored with BuildFailed events.
type BuildFailedPayload struct {
	Kind       string `json:"kind"`
	Stage      string `json:"stage,omitempty"`
	Error      string `json:"error"`
	DurationMS int64  `json:"duration_ms"`
}

func newEvent(buildID, eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, errors.EventStoreError("failed to marshal event payload").
			WithCause(err).
			WithContext("build_id", buildID).
			WithContext("type", eventType).
			Build()
	}
	return Event{BuildID: buildID, Type: eventType, Timestamp: time.Now(), Payload: data}, nil
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, p BuildStartedPayload) (Event, error) {
	return newEvent(buildID, TypeBuildStarted, p)
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID string, p BuildCompletedPayload) (Event, error) {
	return newEvent(buildID, TypeBuildCompleted, p)
}

// NewBuildFailed creates a BuildFailed event.
func NewBuildFailed(buildID string, p BuildFailedPayload) (Event, error) {
	return newEvent(buildID, TypeBuildFailed, p)
}
