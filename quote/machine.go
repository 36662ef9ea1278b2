package quote

import (
	"context"
	"sync"
	"time"

	"anarchy.ttfm/payin/apierror"
	"anarchy.ttfm/payin/countdown"
	"anarchy.ttfm/payin/transactions"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Config struct {
	// Identifier of the transaction this machine owns
	Id uuid.UUID
	// Transport to the merchant API
	Service Service
	// Tick interval of the acceptance countdown. Defaults to RefreshQuoteInterval
	Interval time.Duration
	// Clock to sample. Defaults to time.Now
	Now func() time.Time
	// Logger to use
	Logger zerolog.Logger
}

// Machine orchestrates the accept stage of the checkout for a single
// transaction: it owns the merged snapshot, the selected settlement
// currency, the single error slot and the navigation outcome
type Machine struct {
	id       uuid.UUID
	service  Service
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	mu          sync.Mutex
	transaction *transactions.Summary
	err         error
	selected    string
	inFlight    int
	confirmed   bool
	forced      *Page
}

func New(config Config) (m *Machine) {
	m = &Machine{
		id:       config.Id,
		service:  config.Service,
		interval: config.Interval,
		now:      config.Now,
		logger:   config.Logger,
		selected: transactions.PaymentMethodNone,
	}
	if m.interval <= 0 {
		m.interval = countdown.RefreshQuoteInterval
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func (m *Machine) Id() (id uuid.UUID) {
	return m.id
}

// Transaction returns the latest merged snapshot
func (m *Machine) Transaction() (summary transactions.Summary, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transaction == nil {
		return summary, false
	}
	return *m.transaction, true
}

// Err returns the displayable error slot. When set, the error view
// wins over the normal quote UI
func (m *Machine) Err() (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Selected returns the chosen settlement currency, or the none sentinel
func (m *Machine) Selected() (currency string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// Loading reports whether any fetch or mutation is in flight
func (m *Machine) Loading() (loading bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight > 0
}

// Decision evaluates the transition guard over the current state. It
// has no side effects, so re-evaluating an unchanged state cannot fire
// redundant navigations
func (m *Machine) Decision() (decision Decision) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decisionLocked()
}

func (m *Machine) decisionLocked() (decision Decision) {
	if m.forced != nil {
		return Navigate(*m.forced)
	}

	view := View{Confirmed: m.confirmed}
	if m.transaction != nil {
		view.HasTransaction = true
		view.Status = m.transaction.Status
		view.QuoteStatus = m.transaction.QuoteStatus
	}
	return Decide(view)
}

// Start performs the initial fetch. Terminal states navigate away, a
// snapshot that already carries a paid currency resumes the mid flow
// session by auto selecting it
func (m *Machine) Start(ctx context.Context) (decision Decision) {
	m.begin()
	summary, err := m.service.Summary(ctx, m.id)
	m.end()

	if err != nil {
		m.setError(apierror.Classify(err))
		return m.Decision()
	}

	err = summary.Validate()
	if err != nil {
		m.logger.Warn().Err(err).Stringer("transaction", m.id).Msg("summary failed validation")
		m.force(PageInvalid)
		return m.Decision()
	}

	m.mu.Lock()
	m.transaction = &summary
	m.err = nil
	autoSelect := ""
	if summary.PaidCurrency != nil && summary.PaidCurrency.Currency != "" && m.selected == transactions.PaymentMethodNone {
		autoSelect = summary.PaidCurrency.Currency
	}
	decision = m.decisionLocked()
	m.mu.Unlock()

	if decision.Navigate {
		return decision
	}
	if autoSelect != "" {
		return m.Select(ctx, autoSelect)
	}
	return decision
}

// Select records the payer's settlement currency. The none sentinel
// clears the selection locally, any other value re-quotes the
// transaction in that currency
func (m *Machine) Select(ctx context.Context, currency string) (decision Decision) {
	m.mu.Lock()
	m.selected = currency
	m.mu.Unlock()

	if currency == transactions.PaymentMethodNone {
		return m.Decision()
	}
	return m.update(ctx, currency)
}

// Refresh re-quotes the transaction for the current selection. No-op
// while no currency is selected
func (m *Machine) Refresh(ctx context.Context) (decision Decision) {
	m.mu.Lock()
	currency := m.selected
	m.mu.Unlock()

	if currency == transactions.PaymentMethodNone {
		return m.Decision()
	}
	return m.update(ctx, currency)
}

func (m *Machine) update(ctx context.Context, currency string) (decision Decision) {
	m.begin()
	updated, err := m.service.UpdateSummary(ctx, m.id, transactions.UpdateSummaryRequest{
		Currency:    currency,
		PayInMethod: transactions.PayInMethodCrypto,
	})
	m.end()

	if err != nil {
		classified := apierror.Classify(err)
		if apiErr, ok := apierror.AsError(classified); ok && apierror.IsQuoteExpired(apiErr.Code) {
			// Expired type codes short-circuit to navigation, they
			// never reach the error slot
			m.force(PageExpired)
			return m.Decision()
		}
		m.setError(classified)
		return m.Decision()
	}

	m.mu.Lock()
	if m.selected != currency {
		// A newer selection superseded this response, discard it
		m.mu.Unlock()
		return m.Decision()
	}
	var previous transactions.Summary
	if m.transaction != nil {
		previous = *m.transaction
	}
	merged := transactions.Merge(previous, updated)
	m.transaction = &merged
	m.err = nil
	m.mu.Unlock()

	return m.Decision()
}

// Confirm accepts the current quote. Success is terminal for this
// stage and navigates to the pay page
func (m *Machine) Confirm(ctx context.Context) (decision Decision) {
	m.begin()
	err := m.service.AcceptSummary(ctx, m.id)
	m.end()

	if err != nil {
		m.setError(apierror.Classify(err))
		return m.Decision()
	}

	m.mu.Lock()
	m.confirmed = true
	m.mu.Unlock()
	return m.Decision()
}

// Run drives the acceptance countdown. When the quote on offer runs
// out while a currency is selected, the quote is refreshed in place, a
// silent retry rather than a navigation. One refresh per deadline
func (m *Machine) Run(ctx context.Context) {
	timer := countdown.New(countdown.Config{
		Target:   m.acceptanceExpiry(),
		Interval: m.interval,
		Now:      m.now,
	})
	defer timer.Stop()

	tracked := m.acceptanceExpiry()
	var refreshed transactions.Millis

	// The countdown goes silent without a target, so the deadline is
	// re-read on a ticker of its own
	retrack := time.NewTicker(m.interval)
	defer retrack.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-retrack.C:
			if target := m.acceptanceExpiry(); target != tracked {
				tracked = target
				timer.Reset(target)
			}
		case snap := <-timer.C():
			if !snap.Expired || tracked.IsZero() || tracked == refreshed {
				continue
			}
			refreshed = tracked
			m.Refresh(ctx)
			if target := m.acceptanceExpiry(); target != tracked {
				tracked = target
				timer.Reset(target)
			}
		}
	}
}

func (m *Machine) acceptanceExpiry() (target transactions.Millis) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transaction == nil {
		return 0
	}
	return m.transaction.AcceptanceExpiryDate
}

func (m *Machine) setError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *Machine) force(page Page) {
	m.mu.Lock()
	m.forced = &page
	m.mu.Unlock()
}

func (m *Machine) begin() {
	m.mu.Lock()
	m.inFlight++
	m.mu.Unlock()
}

func (m *Machine) end() {
	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
}
