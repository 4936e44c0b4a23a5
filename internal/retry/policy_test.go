package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, BackoffLinear, p.Mode)
	require.Equal(t, 500*time.Millisecond, p.Initial)
	require.Equal(t, 5*time.Second, p.Max)
	require.Equal(t, 2, p.MaxRetries)
	require.NoError(t, p.Validate())
}

func TestNewPolicy_ClampsAndFallsBack(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 5)
	require.Equal(t, 2*time.Second, p.Initial)
	require.Equal(t, BackoffFixed, p.Mode)
	require.Equal(t, 5, p.MaxRetries)

	require.Equal(t, BackoffLinear, NewPolicy("weird", time.Second, 2*time.Second, 1).Mode)
}

func TestDelay(t *testing.T) {
	ms := time.Millisecond
	cases := []struct {
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{NewPolicy(BackoffFixed, 100*ms, 500*ms, 3), 3, 100 * ms},
		{NewPolicy(BackoffLinear, 100*ms, 250*ms, 5), 2, 200 * ms},
		{NewPolicy(BackoffLinear, 100*ms, 250*ms, 5), 3, 250 * ms},
		{NewPolicy(BackoffExponential, 50*ms, 160*ms, 5), 2, 100 * ms},
		{NewPolicy(BackoffExponential, 50*ms, 160*ms, 5), 3, 160 * ms},
		{NewPolicy(BackoffLinear, 10*ms, 20*ms, 1), 0, 0},
		{NewPolicy(BackoffLinear, 10*ms, 20*ms, 1), -1, 0},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.policy.Delay(c.attempt), "%s attempt %d", c.policy.Mode, c.attempt)
	}
}

func TestValidate(t *testing.T) {
	require.Error(t, Policy{Initial: 0, Max: time.Second}.Validate())
	require.Error(t, Policy{Initial: time.Second, Max: 0}.Validate())
	require.Error(t, Policy{Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
}

func TestDo(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 2)
	boom := errors.New("boom")

	calls := 0
	err := p.Do(t.Context(), nil, func(context.Context) error {
		calls++
		if calls < 3 {
			return boom
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	calls = 0
	err = p.Do(t.Context(), nil, func(context.Context) error { calls++; return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)

	calls = 0
	err = p.Do(t.Context(), func(error) bool { return false }, func(context.Context) error { calls++; return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestDo_StopsWhenCancelled(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Hour, time.Hour, 5)
	ctx, cancel := context.WithCancel(t.Context())
	calls := 0
	err := p.Do(ctx, nil, func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
