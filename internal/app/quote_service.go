// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jsamuelsen/aquote/internal/domain"
	"github.com/jsamuelsen/aquote/internal/ports"
)

// QuoteService orchestrates the quote use cases.
// It depends on port interfaces, not concrete implementations.
type QuoteService struct {
	fetcher  ports.QuoteFetcher
	history  ports.QuoteHistory
	vendors  domain.VendorSet
	retry    RetryPolicy
	executor *Executor
	logger   *slog.Logger
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Fetcher ports.QuoteFetcher
	History ports.QuoteHistory
	Vendors domain.VendorSet
	Retry   RetryPolicy
	Logger  *slog.Logger
}

// NewQuoteService creates a new quote service with the provided dependencies.
// It panics if Fetcher or History is nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Fetcher == nil {
		panic("app: QuoteServiceConfig.Fetcher is required")
	}

	if cfg.History == nil {
		panic("app: QuoteServiceConfig.History is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Retry.Logger == nil {
		cfg.Retry.Logger = logger
	}

	return &QuoteService{
		fetcher:  cfg.Fetcher,
		history:  cfg.History,
		vendors:  cfg.Vendors,
		retry:    cfg.Retry,
		executor: NewExecutor(logger),
		logger:   logger,
	}
}

// Fetch retrieves a new quote from a random enabled vendor, records it as
// the most recent quote and saves the history.
func (s *QuoteService) Fetch(ctx context.Context) (*domain.Quote, error) {
	op := Operation[domain.VendorSet, *domain.Quote]{
		Name:     "fetch_quote",
		Validate: s.validateVendors,
		Perform: func(ctx context.Context, vendors domain.VendorSet) (*domain.Quote, error) {
			return FetchWithRetry(ctx, s.fetcher, vendors, s.retry)
		},
		Verify:  verifyQuote,
		Archive: s.archive,
	}

	return Execute(ctx, s.executor, op, s.vendors)
}

func (s *QuoteService) validateVendors(_ context.Context, vendors domain.VendorSet) error {
	if len(vendors.Enabled) == 0 {
		return domain.ErrNoVendors
	}

	for _, key := range vendors.Enabled {
		if _, ok := vendors.Lookup(key); !ok {
			s.logger.Warn("enabled vendor is not configured", slog.String("vendor", key))
		}
	}

	return nil
}

func verifyQuote(_ context.Context, vendors domain.VendorSet, quote *domain.Quote) error {
	if quote == nil {
		return errors.New("no quote returned")
	}

	if !vendors.IsEnabled(quote.VendorKey) {
		return fmt.Errorf("quote from unexpected vendor %q", quote.VendorKey)
	}

	if quote.FetchTime.IsZero() {
		return errors.New("quote has no fetch time")
	}

	return nil
}

func (s *QuoteService) archive(ctx context.Context, _ domain.VendorSet, quote *domain.Quote) error {
	s.history.Push(*quote)

	if err := s.history.Save(); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "quote recorded",
		slog.String("vendor", quote.VendorKey),
		slog.String("author", quote.Author),
	)

	return nil
}

// Latest returns the most recent quote, or false when the history is empty.
func (s *QuoteService) Latest() (domain.Quote, bool) {
	return s.history.Get()
}

// Recent returns the history oldest first, the order `recent` displays it in.
func (s *QuoteService) Recent() []domain.Quote {
	quotes := s.history.List()
	slices.Reverse(quotes)

	return quotes
}
