package quote

import (
	"context"

	"anarchy.ttfm/payin/transactions"
	"github.com/google/uuid"
)

// Service is the transport seam between the state machines and the
// merchant API. Implementations classify their failures, see apierror
type Service interface {
	// Summary fetches the transaction snapshot
	Summary(ctx context.Context, id uuid.UUID) (summary transactions.Summary, err error)
	// UpdateSummary quotes the transaction in the requested currency
	UpdateSummary(ctx context.Context, id uuid.UUID, req transactions.UpdateSummaryRequest) (summary transactions.Summary, err error)
	// AcceptSummary confirms the current quote
	AcceptSummary(ctx context.Context, id uuid.UUID) (err error)
}

// Page of the checkout journey
type Page string

const (
	PageAccept  Page = "accept"
	PagePay     Page = "pay"
	PageExpired Page = "expired"
	PageInvalid Page = "invalid"
)

// Decision is the outcome of a transition guard, stay or navigate
type Decision struct {
	Navigate bool
	Page     Page
}

func Stay() (decision Decision) {
	return Decision{}
}

func Navigate(page Page) (decision Decision) {
	return Decision{Navigate: true, Page: page}
}

// View is the condensed machine state the transition guard evaluates
type View struct {
	// Whether a transaction snapshot has been fetched yet
	HasTransaction bool
	// Lifecycle of the underlying transaction
	Status transactions.Status
	// Lifecycle of the current quote
	QuoteStatus transactions.QuoteStatus
	// Whether the payer confirmed the quote in this session
	Confirmed bool
}

// Decide is the transition guard of the accept stage. It is pure and
// evaluated once per state update, navigation side effects belong to
// the caller. An expired transaction and an already accepted quote are
// both terminal for this stage
func Decide(view View) (decision Decision) {
	if view.Confirmed {
		return Navigate(PagePay)
	}
	if !view.HasTransaction {
		return Stay()
	}
	if view.Status == transactions.StatusExpired {
		return Navigate(PageExpired)
	}
	if view.QuoteStatus == transactions.QuoteAccepted {
		return Navigate(PagePay)
	}
	return Stay()
}
