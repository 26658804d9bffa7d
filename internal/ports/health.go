package ports

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrDuplicateChecker is returned by Register when the name is taken.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker probes one dependency. `aquote vendors --check` registers one
// per configured vendor, so Name is the vendor key.
type HealthChecker interface {
	Name() string

	// Check returns nil when the dependency answered as expected. It must
	// give up once ctx is done.
	Check(ctx context.Context) error
}

// HealthRegistry collects checkers and runs them as a batch.
type HealthRegistry interface {
	Register(checker HealthChecker) error
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus represents the overall health state.
type HealthStatus string

const (
	// HealthStatusHealthy indicates all checks passed.
	HealthStatusHealthy HealthStatus = "healthy"

	// HealthStatusUnhealthy indicates at least one check failed.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult is the outcome of one CheckAll run. Status is unhealthy when
// any entry in Checks is.
type HealthResult struct {
	Status    HealthStatus
	Checks    map[string]*CheckResult
	Timestamp time.Time
}

// Names returns the checker names in sorted order.
func (r *HealthResult) Names() []string {
	return slices.Sorted(maps.Keys(r.Checks))
}

// CheckResult is the outcome of a single checker. Message holds the
// error text when the check failed.
type CheckResult struct {
	Status   HealthStatus
	Message  string
	Duration time.Duration
}

// RegistryOption configures a DefaultHealthRegistry.
type RegistryOption func(*DefaultHealthRegistry)

// WithConcurrency bounds how many checks run at once. Zero or less means unbounded.
func WithConcurrency(n int) RegistryOption {
	return func(r *DefaultHealthRegistry) { r.concurrency = n }
}

// WithCheckTimeout bounds each individual check. Zero means no per-check timeout.
func WithCheckTimeout(d time.Duration) RegistryOption {
	return func(r *DefaultHealthRegistry) { r.checkTimeout = d }
}

// DefaultHealthRegistry is a thread-safe implementation of HealthRegistry.
type DefaultHealthRegistry struct {
	mu           sync.RWMutex
	checkers     []HealthChecker
	concurrency  int
	checkTimeout time.Duration
}

// NewHealthRegistry creates a new health registry.
func NewHealthRegistry(opts ...RegistryOption) *DefaultHealthRegistry {
	r := &DefaultHealthRegistry{
		checkers: make([]HealthChecker, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a health checker to the registry.
// Returns an error if a checker with the same name is already registered.
func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	for _, c := range r.checkers {
		if c.Name() == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
		}
	}

	r.checkers = append(r.checkers, checker)

	return nil
}

// CheckAll runs all registered health checks concurrently. A failing check
// never cancels the others.
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := slices.Clone(r.checkers)
	r.mu.RUnlock()

	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checkers)),
		Timestamp: time.Now(),
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)

	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for _, checker := range checkers {
		g.Go(func() error {
			checkResult := r.run(ctx, checker)

			mu.Lock()
			defer mu.Unlock()

			result.Checks[checker.Name()] = checkResult
			if checkResult.Status == HealthStatusUnhealthy {
				result.Status = HealthStatusUnhealthy
			}

			return nil
		})
	}

	_ = g.Wait()

	return result
}

func (r *DefaultHealthRegistry) run(ctx context.Context, checker HealthChecker) *CheckResult {
	if r.checkTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.checkTimeout)
		defer cancel()
	}

	start := time.Now()
	err := checker.Check(ctx)

	checkResult := &CheckResult{
		Status:   HealthStatusHealthy,
		Duration: time.Since(start),
	}

	if err != nil {
		checkResult.Status = HealthStatusUnhealthy
		checkResult.Message = err.Error()
	}

	return checkResult
}
