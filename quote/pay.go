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

// PayMachine is the terminal stage of the checkout. It re-derives the
// active transaction and is driven purely by the payment deadline
type PayMachine struct {
	id      uuid.UUID
	service Service
	now     func() time.Time
	logger  zerolog.Logger

	mu          sync.Mutex
	transaction *transactions.Summary
	err         error
}

func NewPay(config Config) (p *PayMachine) {
	p = &PayMachine{
		id:      config.Id,
		service: config.Service,
		now:     config.Now,
		logger:  config.Logger,
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Start fetches the summary. A transaction that cannot be fetched or
// validated is treated as invalid
func (p *PayMachine) Start(ctx context.Context) (decision Decision) {
	summary, err := p.service.Summary(ctx, p.id)
	if err != nil {
		classified := apierror.Classify(err)
		p.logger.Warn().Err(classified).Stringer("transaction", p.id).Msg("pay stage fetch failed")
		p.mu.Lock()
		p.err = classified
		p.mu.Unlock()
		return Navigate(PageInvalid)
	}

	err = summary.Validate()
	if err != nil {
		p.logger.Warn().Err(err).Stringer("transaction", p.id).Msg("summary failed validation")
		return Navigate(PageInvalid)
	}

	p.mu.Lock()
	p.transaction = &summary
	p.mu.Unlock()
	return p.Decision()
}

// Decision evaluates the pay stage guards: an expired payment deadline
// navigates to the expired page, a quote that was never accepted sends
// the payer back to the accept stage
func (p *PayMachine) Decision() (decision Decision) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.transaction == nil {
		return Stay()
	}
	if countdown.At(p.transaction.ExpiryDate, p.now()).Expired {
		return Navigate(PageExpired)
	}
	if p.transaction.QuoteStatus != transactions.QuoteAccepted {
		return Navigate(PageAccept)
	}
	return Stay()
}

// Transaction returns the fetched snapshot
func (p *PayMachine) Transaction() (summary transactions.Summary, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.transaction == nil {
		return summary, false
	}
	return *p.transaction, true
}

// Countdown samples the payment deadline. Before the snapshot is
// available it renders the neutral placeholder instead of a stale value
func (p *PayMachine) Countdown() (snap countdown.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.transaction == nil {
		return countdown.Snapshot{Expired: true, Formatted: countdown.PlaceholderClock}
	}
	return countdown.At(p.transaction.ExpiryDate, p.now())
}
