package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/retry"
)

type fakeConn struct {
	subject    string
	data       []byte
	publishErr error
	failures   int
	calls      int
	closed     bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.calls++
	f.subject, f.data = subj, data
	if f.calls <= f.failures {
		return errors.New("transient")
	}
	return f.publishErr
}
func (f *fakeConn) FlushWithContext(context.Context) error { return nil }
func (f *fakeConn) Close()                                 { f.closed = true }

func TestNATSPublisher_Publish(t *testing.T) {
	fc := &fakeConn{}
	p := &NATSPublisher{conn: fc, subject: "blogbuilder.builds"}

	summary := BuildSummary{BuildID: "b1", Kind: "full", Posts: 2, Duration: "1.2s", Finished: time.Unix(0, 0).UTC()}
	require.NoError(t, p.Publish(t.Context(), summary))
	require.Equal(t, "blogbuilder.builds", fc.subject)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(fc.data, &decoded))
	require.Equal(t, "b1", decoded["build_id"])
	require.Equal(t, "full", decoded["kind"])
	require.EqualValues(t, 2, decoded["posts"])

	p.Close()
	require.True(t, fc.closed)
}

func TestNATSPublisher_PublishError(t *testing.T) {
	p := &NATSPublisher{conn: &fakeConn{publishErr: errors.New("nope")}, subject: "s"}
	err := p.Publish(t.Context(), BuildSummary{})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
}

func TestNATSPublisher_RetriesTransientFailures(t *testing.T) {
	fc := &fakeConn{failures: 2}
	p := (&NATSPublisher{conn: fc, subject: "s"}).
		WithRetry(retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 2))
	require.NoError(t, p.Publish(t.Context(), BuildSummary{BuildID: "b"}))
	require.Equal(t, 3, fc.calls)

	fc = &fakeConn{failures: 5}
	p = (&NATSPublisher{conn: fc, subject: "s"}).
		WithRetry(retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 1))
	require.Error(t, p.Publish(t.Context(), BuildSummary{}))
	require.Equal(t, 2, fc.calls)
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "s")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	require.NoError(t, p.Publish(t.Context(), BuildSummary{}))
	p.Close()
}
