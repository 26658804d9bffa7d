// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for operations that block on the network
//   - Return domain types, never vendor DTOs or infrastructure types
//   - Error returns use domain error types (ErrTransport, ErrExtraction, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/aquote/internal/domain"
)

// QuoteFetcher retrieves a single quote from one vendor.
// Implementations perform exactly one attempt; retrying is the caller's job.
//
// Example usage in application layer:
//
//	quote, err := fetcher.Fetch(ctx, "zenquotes", vendor, time.Now())
type QuoteFetcher interface {
	// Fetch queries vendor and builds a quote stamped with vendorKey and
	// fetchTime. Returns domain.ErrTransport when no response was obtained
	// and domain.ErrExtraction when the response lacks a required field.
	Fetch(ctx context.Context, vendorKey string, vendor domain.Vendor, fetchTime time.Time) (*domain.Quote, error)
}

// QuoteHistory is the bounded, most-recent-first list of fetched quotes.
// It works on local files only, so no context is taken.
type QuoteHistory interface {
	// Push records q as the most recent quote, evicting the oldest when full.
	Push(q domain.Quote)

	// Get returns the most recent quote, or false when empty.
	Get() (domain.Quote, bool)

	// List returns all quotes, most recent first.
	List() []domain.Quote

	// Save persists the history. Returns domain.ErrSaveHistory on failure.
	Save() error
}

// VendorProber builds a health check for one configured vendor.
type VendorProber func(vendorKey string, vendor domain.Vendor) HealthChecker
