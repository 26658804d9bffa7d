package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/aquote/internal/domain"
	"github.com/jsamuelsen/aquote/internal/mocks"
)

var testNow = time.Date(2021, 1, 1, 10, 0, 0, 0, time.UTC)

// sleepRecorder records requested delays without sleeping.
type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

// attemptRecorder collects RecordFetchAttempt calls.
type attemptRecorder struct {
	mu       sync.Mutex
	attempts []string
}

func (r *attemptRecorder) RecordFetchAttempt(vendorKey, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts = append(r.attempts, vendorKey+":"+result)
}

func testVendors(keys ...string) domain.VendorSet {
	set := domain.VendorSet{Vendors: map[string]domain.Vendor{}, Enabled: keys}
	for _, key := range keys {
		set.Vendors[key] = domain.Vendor{
			Name:     key,
			Endpoint: "https://" + key + ".test/quote",
			Queries:  domain.VendorQueries{Quote: "quote", Author: "author"},
		}
	}

	return set
}

func testPolicy(sleeper *sleepRecorder) RetryPolicy {
	return RetryPolicy{
		Intn:   func(int) int { return 0 },
		Sleep:  sleeper.Sleep,
		Now:    func() time.Time { return testNow },
		Logger: discardLogger(),
	}
}

func TestFetchWithRetry_FirstAttemptSucceeds(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	vendors := testVendors("test")
	want := &domain.Quote{Text: "Q", Author: "A", VendorKey: "test", FetchTime: testNow}
	sleeper := &sleepRecorder{}

	fetcher.On("Fetch", mock.Anything, "test", vendors.Vendors["test"], testNow).Return(want, nil).Once()

	quote, err := FetchWithRetry(context.Background(), fetcher, vendors, testPolicy(sleeper))

	require.NoError(t, err)
	assert.Equal(t, want, quote)
	assert.Empty(t, sleeper.delays)
}

func TestFetchWithRetry_RetriesAfterFailure(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	vendors := testVendors("first", "second")
	sleeper := &sleepRecorder{}
	recorder := &attemptRecorder{}

	picks := []int{0, 1}
	policy := testPolicy(sleeper)
	policy.Recorder = recorder
	policy.Intn = func(n int) int {
		assert.Equal(t, 2, n)
		pick := picks[0]
		picks = picks[1:]

		return pick
	}

	fetcher.On("Fetch", mock.Anything, "first", mock.Anything, testNow).
		Return(nil, domain.NewTransportError("first", "", errors.New("refused"))).Once()
	fetcher.On("Fetch", mock.Anything, "second", mock.Anything, testNow).
		Return(&domain.Quote{Text: "Q", VendorKey: "second"}, nil).Once()

	quote, err := FetchWithRetry(context.Background(), fetcher, vendors, policy)

	require.NoError(t, err)
	assert.Equal(t, "second", quote.VendorKey)
	assert.Equal(t, []time.Duration{DefaultRetryDelay}, sleeper.delays)
	assert.Equal(t, []string{"first:failure", "second:success"}, recorder.attempts)
}

func TestFetchWithRetry_Exhausted(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	vendors := testVendors("test")
	sleeper := &sleepRecorder{}
	lastErr := domain.NewTransportError("test", "unexpected status 500", nil)

	fetcher.On("Fetch", mock.Anything, "test", mock.Anything, testNow).
		Return(nil, lastErr).Times(2)

	quote, err := FetchWithRetry(context.Background(), fetcher, vendors, testPolicy(sleeper))

	assert.Nil(t, quote)
	require.ErrorIs(t, err, domain.ErrRetryExhausted)
	require.ErrorIs(t, err, domain.ErrTransport)

	var exhausted *domain.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Equal(t, lastErr, exhausted.LastErr)

	assert.Equal(t, []time.Duration{3000 * time.Millisecond}, sleeper.delays)
	fetcher.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestFetchWithRetry_NoVendors(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	sleeper := &sleepRecorder{}

	quote, err := FetchWithRetry(context.Background(), fetcher, domain.VendorSet{}, testPolicy(sleeper))

	assert.Nil(t, quote)
	require.ErrorIs(t, err, domain.ErrNoVendors)
	assert.True(t, domain.IsConfig(err))
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, sleeper.delays)
}

func TestFetchWithRetry_MissingVendorCountsAsAttempt(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	vendors := testVendors("present")
	vendors.Enabled = []string{"missing"}
	sleeper := &sleepRecorder{}

	_, err := FetchWithRetry(context.Background(), fetcher, vendors, testPolicy(sleeper))

	require.ErrorIs(t, err, domain.ErrRetryExhausted)
	require.ErrorIs(t, err, domain.ErrConfig)
	assert.Contains(t, err.Error(), "vendor not found")
	assert.Len(t, sleeper.delays, 1)
}

func TestFetchWithRetry_CustomAttempts(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	sleeper := &sleepRecorder{}
	policy := testPolicy(sleeper)
	policy.MaxAttempts = 4
	policy.Delay = time.Second

	fetcher.On("Fetch", mock.Anything, "test", mock.Anything, testNow).
		Return(nil, domain.NewExtractionError("test", "quote", domain.ErrFieldNotFound)).Times(4)

	_, err := FetchWithRetry(context.Background(), fetcher, testVendors("test"), policy)

	var exhausted *domain.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, sleeper.delays)
}

func TestFetchWithRetry_CancelledWhileWaiting(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	ctx, cancel := context.WithCancel(context.Background())

	policy := testPolicy(&sleepRecorder{})
	policy.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return SleepContext(ctx, d)
	}

	fetcher.On("Fetch", mock.Anything, "test", mock.Anything, testNow).
		Return(nil, domain.NewTransportError("test", "", errors.New("refused"))).Once()

	_, err := FetchWithRetry(ctx, fetcher, testVendors("test"), policy)

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, domain.IsRetryExhausted(err))
}

func TestFetchWithRetry_SingleAttemptNeverSleeps(t *testing.T) {
	fetcher := mocks.NewMockQuoteFetcher(t)
	sleeper := &sleepRecorder{}
	policy := testPolicy(sleeper)
	policy.MaxAttempts = 1

	fetcher.On("Fetch", mock.Anything, "test", mock.Anything, testNow).
		Return(nil, domain.NewTransportError("test", "", errors.New("refused"))).Once()

	_, err := FetchWithRetry(context.Background(), fetcher, testVendors("test"), policy)

	var exhausted *domain.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 1, exhausted.Attempts)
	assert.Empty(t, sleeper.delays)
}

func TestRetryBudget(t *testing.T) {
	budget := newRetryBudget(backoff.NewConstantBackOff(3*time.Second), 2)

	assert.Equal(t, 3*time.Second, budget.NextBackOff())
	assert.Equal(t, 3*time.Second, budget.NextBackOff())
	assert.Equal(t, backoff.Stop, budget.NextBackOff())
	assert.Equal(t, backoff.Stop, budget.NextBackOff())

	budget.Reset()
	assert.Equal(t, 3*time.Second, budget.NextBackOff())

	assert.Equal(t, backoff.Stop, newRetryBudget(backoff.NewConstantBackOff(time.Second), 0).NextBackOff())
	assert.Equal(t, backoff.Stop, newRetryBudget(&backoff.StopBackOff{}, 3).NextBackOff(),
		"a stop from the wrapped backoff passes through")
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, SleepContext(context.Background(), time.Millisecond))
	require.NoError(t, SleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()

	assert.Equal(t, 2, policy.MaxAttempts)
	assert.Equal(t, 3*time.Second, policy.Delay)
	assert.NotNil(t, policy.Intn)
	assert.NotNil(t, policy.Sleep)
	assert.NotNil(t, policy.Now)
	assert.NotNil(t, policy.Logger)
}
