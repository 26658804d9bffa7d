// Package mocks provides testify mocks for the ports interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/aquote/internal/domain"
)

// MockQuoteFetcher is a mock implementation of ports.QuoteFetcher.
type MockQuoteFetcher struct {
	mock.Mock
}

// NewMockQuoteFetcher creates a MockQuoteFetcher whose expectations are
// asserted when the test ends.
func NewMockQuoteFetcher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockQuoteFetcher {
	m := &MockQuoteFetcher{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Fetch provides a mock function.
func (m *MockQuoteFetcher) Fetch(ctx context.Context, vendorKey string, vendor domain.Vendor, fetchTime time.Time) (*domain.Quote, error) {
	args := m.Called(ctx, vendorKey, vendor, fetchTime)

	var quote *domain.Quote
	if q := args.Get(0); q != nil {
		quote = q.(*domain.Quote)
	}

	return quote, args.Error(1)
}
