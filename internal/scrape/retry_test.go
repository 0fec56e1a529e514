package scrape

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingSleeper captures every backoff pause without actually sleeping.
type recordingSleeper struct {
	pauses []time.Duration
}

func (s *recordingSleeper) Pause(_ context.Context, d time.Duration) {
	s.pauses = append(s.pauses, d)
}

func TestController_TransientThenSuccess(t *testing.T) {
	t.Parallel()
	sleeper := &recordingSleeper{}
	ctrl := NewController(Policy{MaxAttempts: 3, Backoff: 5 * time.Second}, zap.NewNop()).WithSleeper(sleeper)

	calls := 0
	err := ctrl.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls <= 2 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, sleeper.pauses)
}

func TestController_ChallengeExhaustsBudget(t *testing.T) {
	t.Parallel()
	sleeper := &recordingSleeper{}
	ctrl := NewController(Policy{MaxAttempts: 4, Backoff: time.Second}, zap.NewNop()).WithSleeper(sleeper)

	calls := 0
	err := ctrl.Execute(context.Background(), func(context.Context) error {
		calls++
		return &ChallengeError{Marker: "just a moment"}
	})

	require.Equal(t, 4, calls)
	require.Len(t, sleeper.pauses, 3)

	var terminal *TerminalError
	require.ErrorAs(t, err, &terminal)
	require.Equal(t, FailureChallenge, terminal.Kind)
	require.Equal(t, 4, terminal.Attempts)
}

func TestController_NoDataHasSeparateBudget(t *testing.T) {
	t.Parallel()
	ctrl := NewController(Policy{MaxAttempts: 5, NoDataMaxAttempts: 2}, zap.NewNop()).WithSleeper(&recordingSleeper{})

	calls := 0
	err := ctrl.Execute(context.Background(), func(context.Context) error {
		calls++
		return fmt.Errorf("extract: %w", ErrNoData)
	})

	require.Equal(t, 2, calls)

	var terminal *TerminalError
	require.ErrorAs(t, err, &terminal)
	require.Equal(t, FailureNoData, terminal.Kind)
}

func TestController_SingleAttemptFloor(t *testing.T) {
	t.Parallel()
	ctrl := NewController(Policy{MaxAttempts: 0}, zap.NewNop()).WithSleeper(&recordingSleeper{})

	calls := 0
	err := ctrl.Execute(context.Background(), func(context.Context) error {
		calls++
		return errors.New("boom")
	})

	require.Equal(t, 1, calls)
	var terminal *TerminalError
	require.ErrorAs(t, err, &terminal)
}

func TestController_CanceledContextStopsRetrying(t *testing.T) {
	t.Parallel()
	ctrl := NewController(Policy{MaxAttempts: 3}, zap.NewNop()).WithSleeper(&recordingSleeper{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := ctrl.Execute(ctx, func(context.Context) error {
		calls++
		return errors.New("boom")
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, calls)
}

func TestClassify(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"no data", ErrNoData, FailureNoData},
		{"wrapped no data", fmt.Errorf("player: %w", ErrNoData), FailureNoData},
		{"challenge", &ChallengeError{Marker: "checking your browser"}, FailureChallenge},
		{"wrapped challenge", fmt.Errorf("fetch: %w", &ChallengeError{Marker: "just a moment"}), FailureChallenge},
		{"deadline", context.DeadlineExceeded, FailureTransient},
		{"plain error", errors.New("connection refused"), FailureTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestTerminalError_Unwrap(t *testing.T) {
	t.Parallel()
	cause := &ChallengeError{Marker: "just a moment"}
	err := &TerminalError{Kind: FailureChallenge, Attempts: 5, Err: cause}

	var challenge *ChallengeError
	require.ErrorAs(t, err, &challenge)
	require.Equal(t, "just a moment", challenge.Marker)
	require.Contains(t, err.Error(), "challenge-detected")
}
