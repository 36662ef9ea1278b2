package mock

import (
	"context"
	"errors"
	"sync"

	"anarchy.ttfm/payin/quote"
	"anarchy.ttfm/payin/transactions"
	"github.com/google/uuid"
)

var ErrNoSummary = errors.New("mock has no summary configured")

// Mock implements the quote.Service interface for testing purposes.
// Every call is recorded so tests can assert how the machines drive
// the transport
type Mock struct {
	mu sync.Mutex

	// Summary to serve and the error to fail fetches with
	summary    *transactions.Summary
	summaryErr error
	// Summary to serve for updates and the error to fail them with
	updated   *transactions.Summary
	updateErr error
	// Error to fail accepts with
	acceptErr error

	summaryCalls int
	acceptCalls  int
	updates      []transactions.UpdateSummaryRequest
}

var _ quote.Service = (*Mock)(nil)

func New() (m *Mock) {
	return &Mock{}
}

func (m *Mock) ServeSummary(summary transactions.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = &summary
}

func (m *Mock) FailSummary(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryErr = err
}

func (m *Mock) ServeUpdate(summary transactions.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = &summary
	m.updateErr = nil
}

func (m *Mock) FailUpdate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateErr = err
}

func (m *Mock) FailAccept(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acceptErr = err
}

func (m *Mock) Summary(ctx context.Context, id uuid.UUID) (summary transactions.Summary, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.summaryCalls++
	if m.summaryErr != nil {
		return summary, m.summaryErr
	}
	if m.summary == nil {
		return summary, ErrNoSummary
	}
	return *m.summary, nil
}

func (m *Mock) UpdateSummary(ctx context.Context, id uuid.UUID, req transactions.UpdateSummaryRequest) (summary transactions.Summary, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates = append(m.updates, req)
	if m.updateErr != nil {
		return summary, m.updateErr
	}
	if m.updated != nil {
		return *m.updated, nil
	}
	if m.summary == nil {
		return summary, ErrNoSummary
	}

	// Default behavior: echo the stored summary quoted in the
	// requested currency
	summary = *m.summary
	summary.PaidCurrency = &transactions.Amount{Currency: req.Currency, Amount: 0.5}
	return summary, nil
}

func (m *Mock) AcceptSummary(ctx context.Context, id uuid.UUID) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.acceptCalls++
	return m.acceptErr
}

// SummaryCalls reports how many fetches were issued
func (m *Mock) SummaryCalls() (calls int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaryCalls
}

// AcceptCalls reports how many accepts were issued
func (m *Mock) AcceptCalls() (calls int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acceptCalls
}

// Updates returns every update request in issue order
func (m *Mock) Updates() (updates []transactions.UpdateSummaryRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()

	updates = make([]transactions.UpdateSummaryRequest, len(m.updates))
	copy(updates, m.updates)
	return updates
}
