package ports

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkFunc adapts a function to HealthChecker.
type checkFunc struct {
	name  string
	check func(ctx context.Context) error
}

func (c checkFunc) Name() string { return c.name }

func (c checkFunc) Check(ctx context.Context) error {
	if c.check == nil {
		return nil
	}

	return c.check(ctx)
}

func failing(name string, err error) checkFunc {
	return checkFunc{name: name, check: func(context.Context) error { return err }}
}

// slow waits d unless ctx ends first.
func slow(name string, d time.Duration) checkFunc {
	return checkFunc{name: name, check: func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	}}
}

func registryWith(t *testing.T, checkers []HealthChecker, opts ...RegistryOption) *DefaultHealthRegistry {
	t.Helper()

	r := NewHealthRegistry(opts...)
	for _, c := range checkers {
		require.NoError(t, r.Register(c))
	}

	return r
}

func TestRegister_RejectsDuplicateNames(t *testing.T) {
	r := registryWith(t, []HealthChecker{checkFunc{name: "zenquotes"}})

	err := r.Register(checkFunc{name: "zenquotes"})

	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "zenquotes")
	assert.Len(t, r.checkers, 1)
}

func TestCheckAll(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []HealthChecker
		wantStatus HealthStatus
		wantFailed map[string]string
	}{
		{
			name:       "empty registry is healthy",
			wantStatus: HealthStatusHealthy,
		},
		{
			name: "all vendors answer",
			checkers: []HealthChecker{
				checkFunc{name: "zenquotes"},
				checkFunc{name: "quotable"},
				checkFunc{name: "forismatic"},
			},
			wantStatus: HealthStatusHealthy,
		},
		{
			name: "one vendor down",
			checkers: []HealthChecker{
				checkFunc{name: "zenquotes"},
				failing("quotable", errors.New("connection timeout")),
				checkFunc{name: "forismatic"},
			},
			wantStatus: HealthStatusUnhealthy,
			wantFailed: map[string]string{"quotable": "connection timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := registryWith(t, tt.checkers).CheckAll(context.Background())

			require.NotNil(t, result)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Len(t, result.Checks, len(tt.checkers))
			assert.False(t, result.Timestamp.IsZero())

			for _, c := range tt.checkers {
				check := result.Checks[c.Name()]
				require.NotNil(t, check, c.Name())

				if msg, failed := tt.wantFailed[c.Name()]; failed {
					assert.Equal(t, HealthStatusUnhealthy, check.Status)
					assert.Equal(t, msg, check.Message)
				} else {
					assert.Equal(t, HealthStatusHealthy, check.Status)
					assert.Empty(t, check.Message)
				}
			}
		})
	}
}

func TestCheckAll_CanceledContext(t *testing.T) {
	r := registryWith(t, []HealthChecker{slow("favqs", 100*time.Millisecond)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := r.CheckAll(ctx)

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["favqs"].Message, "context canceled")
}

func TestCheckAll_PerCheckTimeout(t *testing.T) {
	r := registryWith(t, []HealthChecker{
		slow("slow-vendor", 100*time.Millisecond),
		checkFunc{name: "fast-vendor"},
	}, WithCheckTimeout(10*time.Millisecond))

	result := r.CheckAll(context.Background())

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Equal(t, HealthStatusHealthy, result.Checks["fast-vendor"].Status)
	assert.Contains(t, result.Checks["slow-vendor"].Message, "deadline exceeded")
}

func TestCheckAll_BoundedConcurrency(t *testing.T) {
	var running, peak atomic.Int32

	track := func(ctx context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)

		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)

		return nil
	}

	var checkers []HealthChecker
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		checkers = append(checkers, checkFunc{name: name, check: track})
	}

	result := registryWith(t, checkers, WithConcurrency(2)).CheckAll(context.Background())

	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.Len(t, result.Checks, 5)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestHealthResult_Names(t *testing.T) {
	result := &HealthResult{Checks: map[string]*CheckResult{"b": {}, "c": {}, "a": {}}}

	assert.Equal(t, []string{"a", "b", "c"}, result.Names())
}
