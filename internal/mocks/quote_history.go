package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/aquote/internal/domain"
)

// MockQuoteHistory is a mock implementation of ports.QuoteHistory.
type MockQuoteHistory struct {
	mock.Mock
}

// NewMockQuoteHistory creates a MockQuoteHistory whose expectations are
// asserted when the test ends.
func NewMockQuoteHistory(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockQuoteHistory {
	m := &MockQuoteHistory{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Push provides a mock function.
func (m *MockQuoteHistory) Push(q domain.Quote) {
	m.Called(q)
}

// Get provides a mock function.
func (m *MockQuoteHistory) Get() (domain.Quote, bool) {
	args := m.Called()
	return args.Get(0).(domain.Quote), args.Bool(1)
}

// List provides a mock function.
func (m *MockQuoteHistory) List() []domain.Quote {
	args := m.Called()

	quotes, _ := args.Get(0).([]domain.Quote)

	return quotes
}

// Save provides a mock function.
func (m *MockQuoteHistory) Save() error {
	return m.Called().Error(0)
}
