package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/jsamuelsen/aquote/internal/domain"
	"github.com/jsamuelsen/aquote/internal/ports"
)

const (
	// DefaultMaxAttempts is the number of fetch attempts, the first included.
	DefaultMaxAttempts = 2

	// DefaultRetryDelay is the pause between attempts.
	DefaultRetryDelay = 3000 * time.Millisecond
)

// Attempt results reported to an AttemptRecorder.
const (
	AttemptSuccess = "success"
	AttemptFailure = "failure"
)

// AttemptRecorder counts fetch attempts per vendor.
type AttemptRecorder interface {
	RecordFetchAttempt(vendorKey, result string)
}

// RetryPolicy controls vendor selection and retrying in FetchWithRetry.
// Zero fields take their defaults.
type RetryPolicy struct {
	// MaxAttempts bounds the total number of fetch attempts.
	MaxAttempts int

	// Delay is the constant pause between attempts.
	Delay time.Duration

	// Intn picks a vendor index in [0, n). Repeats across attempts are allowed.
	Intn func(n int) int

	// Sleep pauses for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error

	// Now stamps fetched quotes.
	Now func() time.Time

	// Logger receives one record per failed attempt.
	Logger *slog.Logger

	// Recorder, when set, is told about every attempt.
	Recorder AttemptRecorder
}

// DefaultRetryPolicy returns a policy with two attempts three seconds apart,
// a uniform random vendor pick and the wall clock.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{}.withDefaults()
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}

	if p.Delay <= 0 {
		p.Delay = DefaultRetryDelay
	}

	if p.Intn == nil {
		p.Intn = rand.IntN
	}

	if p.Sleep == nil {
		p.Sleep = SleepContext
	}

	if p.Now == nil {
		p.Now = time.Now
	}

	if p.Logger == nil {
		p.Logger = slog.Default()
	}

	return p
}

// FetchWithRetry fetches a quote from a randomly selected enabled vendor,
// selecting again after each failure until the policy's attempts run out.
//
// With no enabled vendors it returns domain.ErrNoVendors without fetching.
// An enabled key missing from the vendor map fails that attempt with a
// domain.ConfigError. When every attempt fails the result is a
// domain.RetryExhaustedError wrapping the last failure.
func FetchWithRetry(ctx context.Context, fetcher ports.QuoteFetcher, vendors domain.VendorSet, policy RetryPolicy) (*domain.Quote, error) {
	if len(vendors.Enabled) == 0 {
		return nil, domain.ErrNoVendors
	}

	policy = policy.withDefaults()
	delays := newRetryBudget(backoff.NewConstantBackOff(policy.Delay), policy.MaxAttempts-1)

	for attempt := 1; ; attempt++ {
		key := vendors.Enabled[policy.Intn(len(vendors.Enabled))]

		quote, err := fetchOnce(ctx, fetcher, vendors, key, policy.Now())
		if err == nil {
			policy.record(key, AttemptSuccess)

			return quote, nil
		}

		policy.record(key, AttemptFailure)
		policy.Logger.WarnContext(ctx, "fetch attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", policy.MaxAttempts),
			slog.String("vendor", key),
			slog.Any("error", err),
		)

		if ctx.Err() != nil {
			return nil, err
		}

		wait := delays.NextBackOff()
		if wait == backoff.Stop {
			return nil, domain.NewRetryExhaustedError(attempt, err)
		}

		if err := policy.Sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("waiting to retry: %w", err)
		}
	}
}

// retryBudget hands out at most retries delays from the wrapped BackOff
// and then returns backoff.Stop.
type retryBudget struct {
	backoff.BackOff

	retries int
	left    int
}

func newRetryBudget(b backoff.BackOff, retries int) *retryBudget {
	return &retryBudget{BackOff: b, retries: retries, left: retries}
}

func (b *retryBudget) NextBackOff() time.Duration {
	if b.left <= 0 {
		return backoff.Stop
	}

	b.left--

	return b.BackOff.NextBackOff()
}

func (b *retryBudget) Reset() {
	b.left = b.retries
	b.BackOff.Reset()
}

func fetchOnce(ctx context.Context, fetcher ports.QuoteFetcher, vendors domain.VendorSet, key string, now time.Time) (*domain.Quote, error) {
	vendor, ok := vendors.Lookup(key)
	if !ok {
		return nil, domain.NewConfigError("vendors."+key, "vendor not found")
	}

	return fetcher.Fetch(ctx, key, vendor, now)
}

func (p RetryPolicy) record(key, result string) {
	if p.Recorder != nil {
		p.Recorder.RecordFetchAttempt(key, result)
	}
}

// SleepContext waits for d, returning early with the context's error when
// ctx is done first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
