package scrape

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
)

// Policy fixes the retry budget and backoff for one call site. The discovery
// and detail phases carry independently tuned policies.
type Policy struct {
	// MaxAttempts bounds total invocations for transient-network and
	// challenge-detected failures.
	MaxAttempts int
	// NoDataMaxAttempts bounds invocations that fail with ErrNoData.
	// Structural failure on the same address rarely self-resolves, so this
	// budget is typically smaller.
	NoDataMaxAttempts int
	// Backoff is the fixed delay slept before each retry.
	Backoff time.Duration
}

// Controller wraps a fallible fetch-and-extract attempt in the bounded
// retry/backoff policy. Every attempt is independent: no state from a failed
// attempt carries into the next.
type Controller struct {
	policy  Policy
	sleeper Sleeper
	logger  *zap.Logger
}

// NewController builds a Controller with a real timer-backed sleeper.
func NewController(policy Policy, logger *zap.Logger) *Controller {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.NoDataMaxAttempts <= 0 {
		policy.NoDataMaxAttempts = policy.MaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{policy: policy, sleeper: &timerSleeper{}, logger: logger}
}

// WithSleeper swaps the backoff sleeper, used by tests.
func (c *Controller) WithSleeper(s Sleeper) *Controller {
	c.sleeper = s
	return c
}

// Execute runs op until it succeeds or its classified budget is exhausted.
// Exhaustion returns a *TerminalError carrying the last failure kind; the
// caller records it and continues with the next address.
func (c *Controller) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := 0
	noDataAttempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) {
			return err
		}

		kind := Classify(err)
		attempts++
		exhausted := attempts >= c.policy.MaxAttempts
		if kind == FailureNoData {
			noDataAttempts++
			exhausted = noDataAttempts >= c.policy.NoDataMaxAttempts
		}
		if kind == FailureChallenge {
			metricChallengeHits.Inc()
		}
		if exhausted {
			metricTerminalFailures.Inc()
			return &TerminalError{Kind: kind, Attempts: attempts, Err: err}
		}

		metricRetryAttempts.Inc()
		c.logger.Warn("attempt failed, backing off",
			zap.String("kind", string(kind)),
			zap.Int("attempt", attempts),
			zap.Duration("backoff", c.policy.Backoff),
			zap.Error(err),
		)
		c.sleeper.Pause(ctx, c.policy.Backoff)
	}
}

// Classify maps an attempt error onto a FailureKind. Navigation timeouts and
// connection-level errors are transient; everything unrecognized is treated
// as transient too, since retrying is the safe default.
func Classify(err error) FailureKind {
	if errors.Is(err, ErrNoData) {
		return FailureNoData
	}
	var challenge *ChallengeError
	if errors.As(err, &challenge) {
		return FailureChallenge
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureTransient
	}
	return FailureTransient
}

// timerSleeper waits on a timer but wakes early if the context finishes, so a
// backoff never outlives the run.
type timerSleeper struct{}

func (timerSleeper) Pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
