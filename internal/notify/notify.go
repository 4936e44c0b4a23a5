// Package notify publishes a summary of every completed aggregate build.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/retry"
)

// BuildSummary is the message body published for a build.
type BuildSummary struct {
	BuildID   string    `json:"build_id"`
	Kind      string    `json:"kind"`
	Trigger   string    `json:"trigger,omitempty"`
	Posts     int       `json:"posts"`
	Skipped   int       `json:"skipped"`
	Duration  string    `json:"duration"`
	Finished  time.Time `json:"finished"`
	SiteURL   string    `json:"site_url"`
	Artifacts []string  `json:"artifacts,omitempty"`
}

// Publisher announces completed builds.
type Publisher interface {
	Publish(ctx context.Context, summary BuildSummary) error
	Close()
}

// NoopPublisher drops every summary (default when no broker is configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BuildSummary) error { return nil }
func (NoopPublisher) Close()                                      {}

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes summaries on a NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	policy  retry.Policy
}

// NewNATSPublisher connects to url and publishes on subject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("blogbuilder"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS publisher initialized", "url", url, "subject", subject)
	return &NATSPublisher{conn: nc, subject: subject, policy: retry.DefaultPolicy()}, nil
}

// WithRetry replaces the policy applied to failed publishes.
func (p *NATSPublisher) WithRetry(policy retry.Policy) *NATSPublisher {
	p.policy = policy
	return p
}

// Publish sends the summary and waits for the server to acknowledge the
// flush, retrying per the publisher's policy.
func (p *NATSPublisher) Publish(ctx context.Context, summary BuildSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal build summary: %w", err)
	}
	err = p.policy.Do(ctx, ferrors.IsRetryable, func(ctx context.Context) error {
		return p.publishOnce(ctx, data)
	})
	if err != nil {
		return err
	}
	slog.Debug("Published build summary", "subject", p.subject, "build_id", summary.BuildID, "kind", summary.Kind)
	return nil
}

func (p *NATSPublisher) publishOnce(ctx context.Context, data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to publish build summary").
			WithContext("subject", p.subject).
			Retryable().
			Build()
	}
	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(flushCtx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to flush NATS connection").Retryable().Build()
	}
	return nil
}

// Close closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
