package quote_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"anarchy.ttfm/payin/apierror"
	"anarchy.ttfm/payin/quote"
	"anarchy.ttfm/payin/quote/mock"
	"anarchy.ttfm/payin/transactions"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() (now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func pendingSummary(id uuid.UUID) (summary transactions.Summary) {
	return transactions.Summary{
		Uuid:                 id,
		MerchantDisplayName:  "Test Merchant",
		Reference:            "REF-123456",
		Status:               transactions.StatusPending,
		QuoteStatus:          transactions.QuotePending,
		ExpiryDate:           transactions.FromTime(time.Now().Add(30 * time.Minute)),
		DisplayCurrency:      transactions.Amount{Currency: "EUR", Amount: 100.5},
		CurrencyOptions: []transactions.CurrencyOption{
			{Code: "BTC", Protocols: []string{"BTC"}},
			{Code: "ETH", Protocols: []string{"ERC20"}},
		},
	}
}

func newMachine(service quote.Service, id uuid.UUID) (m *quote.Machine) {
	return quote.New(quote.Config{
		Id:      id,
		Service: service,
		Logger:  zerolog.Nop(),
	})
}

func Test_Machine_Start(t *testing.T) {
	t.Run("HappyPath", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		service := mock.New()
		service.ServeSummary(pendingSummary(id))
		m := newMachine(service, id)

		decision := m.Start(context.Background())
		assertions.Equal(quote.Stay(), decision, "a pending transaction stays on the accept page")

		transaction, ok := m.Transaction()
		assertions.True(ok)
		assertions.Equal("Test Merchant", transaction.MerchantDisplayName)
		assertions.Nil(m.Err())
		assertions.Equal(transactions.PaymentMethodNone, m.Selected())
		assertions.Empty(service.Updates(), "no selection means no update call")
	})

	t.Run("ExpiredStatusNavigates", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		summary := pendingSummary(id)
		summary.Status = transactions.StatusExpired
		service := mock.New()
		service.ServeSummary(summary)
		m := newMachine(service, id)

		assertions.Equal(quote.Navigate(quote.PageExpired), m.Start(context.Background()))

		// Re-evaluating the same state is pure, the outcome is stable
		// and fires nothing new
		before := len(service.Updates())
		assertions.Equal(quote.Navigate(quote.PageExpired), m.Decision())
		assertions.Equal(quote.Navigate(quote.PageExpired), m.Decision())
		assertions.Equal(before, len(service.Updates()))
	})

	t.Run("AcceptedQuoteNavigatesToPay", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		summary := pendingSummary(id)
		summary.QuoteStatus = transactions.QuoteAccepted
		summary.PaidCurrency = &transactions.Amount{Currency: "BTC", Amount: 0.5}
		service := mock.New()
		service.ServeSummary(summary)
		m := newMachine(service, id)

		assertions.Equal(quote.Navigate(quote.PagePay), m.Start(context.Background()))
		assertions.Empty(service.Updates(), "terminal states must not auto select")
	})

	t.Run("AutoResume", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		summary := pendingSummary(id)
		summary.PaidCurrency = &transactions.Amount{Currency: "BTC", Amount: 0.5}
		service := mock.New()
		service.ServeSummary(summary)
		m := newMachine(service, id)

		decision := m.Start(context.Background())
		assertions.Equal(quote.Stay(), decision)
		assertions.Equal("BTC", m.Selected(), "the previously quoted currency resumes")

		updates := service.Updates()
		assertions.Len(updates, 1, "auto resume issues exactly one update")
		assertions.Equal("BTC", updates[0].Currency)
	})

	t.Run("FetchFailureFillsErrorSlot", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		service := mock.New()
		service.FailSummary(&apierror.HTTPError{
			StatusCode: 404,
			Body:       []byte(`{"code":"MER-PAY-2008","message":"Transaction not found"}`),
		})
		m := newMachine(service, id)

		assertions.Equal(quote.Stay(), m.Start(context.Background()), "fetch failures are non fatal to the page")

		apiErr, ok := apierror.AsError(m.Err())
		assertions.True(ok, "the failure must be classified")
		assertions.Equal(apierror.CodeNotFound, apiErr.Code)
	})

	t.Run("MalformedSummaryIsInvalid", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		summary := pendingSummary(id)
		summary.Reference = ""
		service := mock.New()
		service.ServeSummary(summary)
		m := newMachine(service, id)

		assertions.Equal(quote.Navigate(quote.PageInvalid), m.Start(context.Background()))
	})
}

func Test_Machine_Select(t *testing.T) {
	t.Run("NoneNeverCallsUpdate", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		service := mock.New()
		service.ServeSummary(pendingSummary(id))
		m := newMachine(service, id)
		m.Start(context.Background())

		decision := m.Select(context.Background(), transactions.PaymentMethodNone)
		assertions.Equal(quote.Stay(), decision)
		assertions.Empty(service.Updates(), "selecting none is local only")
		assertions.Equal(transactions.PaymentMethodNone, m.Selected())
	})

	t.Run("CurrencyAlwaysCallsUpdate", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		service := mock.New()
		service.ServeSummary(pendingSummary(id))
		m := newMachine(service, id)
		m.Start(context.Background())

		decision := m.Select(context.Background(), "BTC")
		assertions.Equal(quote.Stay(), decision)

		updates := service.Updates()
		assertions.Len(updates, 1)
		assertions.Equal("BTC", updates[0].Currency)

		transaction, ok := m.Transaction()
		assertions.True(ok)
		assertions.NotNil(transaction.PaidCurrency)
		assertions.Equal("BTC", transaction.PaidCurrency.Currency)
	})

	t.Run("MergePreservesCurrencyOptions", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		initial := pendingSummary(id)
		service := mock.New()
		service.ServeSummary(initial)

		updated := initial
		updated.CurrencyOptions = nil
		updated.PaidCurrency = &transactions.Amount{Currency: "ETH", Amount: 1.2}
		updated.AcceptanceExpiryDate = transactions.FromTime(time.Now().Add(time.Minute))
		service.ServeUpdate(updated)

		m := newMachine(service, id)
		m.Start(context.Background())
		m.Select(context.Background(), "ETH")

		transaction, ok := m.Transaction()
		assertions.True(ok)
		assertions.Equal(initial.CurrencyOptions, transaction.CurrencyOptions, "options are sticky across updates")
		assertions.Equal("ETH", transaction.PaidCurrency.Currency)
	})

	t.Run("ExpiredCodeRedirects", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		service := mock.New()
		service.ServeSummary(pendingSummary(id))
		service.FailUpdate(&apierror.Error{Code: apierror.CodeExpired, Message: "Transaction expired"})

		m := newMachine(service, id)
		m.Start(context.Background())

		decision := m.Select(context.Background(), "BTC")
		assertions.Equal(quote.Navigate(quote.PageExpired), decision)
		assertions.Nil(m.Err(), "expired codes never reach the error slot")
	})

	t.Run("StatusChangeCodeRedirects", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		service := mock.New()
		service.ServeSummary(pendingSummary(id))
		service.FailUpdate(&apierror.Error{Code: apierror.CodeStatusChange, Message: "Status can not be changed"})

		m := newMachine(service, id)
		m.Start(context.Background())

		assertions.Equal(quote.Navigate(quote.PageExpired), m.Select(context.Background(), "BTC"))
		assertions.Nil(m.Err())
	})

	t.Run("OtherCodeDisplaysInline", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		service := mock.New()
		service.ServeSummary(pendingSummary(id))
		service.FailUpdate(&apierror.Error{Code: apierror.CodePayoutAddress, Message: "Bad address"})

		m := newMachine(service, id)
		m.Start(context.Background())

		decision := m.Select(context.Background(), "BTC")
		assertions.Equal(quote.Stay(), decision, "non expired codes do not navigate")

		desc := apierror.Describe(m.Err())
		assertions.Equal(apierror.Messages[apierror.CodePayoutAddress], desc.Detail)
	})

	t.Run("LastErrorWins", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		service := mock.New()
		service.ServeSummary(pendingSummary(id))
		m := newMachine(service, id)
		m.Start(context.Background())

		service.FailUpdate(&apierror.Error{Code: apierror.CodePayoutAddress, Message: "Bad address"})
		m.Select(context.Background(), "BTC")
		service.FailUpdate(&apierror.Error{Code: apierror.CodeUnexpected, Message: "boom"})
		m.Refresh(context.Background())

		apiErr, ok := apierror.AsError(m.Err())
		assertions.True(ok)
		assertions.Equal(apierror.CodeUnexpected, apiErr.Code, "the last classified error replaces the slot")
	})
}

func Test_Machine_Confirm(t *testing.T) {
	t.Run("SuccessNavigatesToPay", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		service := mock.New()
		service.ServeSummary(pendingSummary(id))
		m := newMachine(service, id)
		m.Start(context.Background())
		m.Select(context.Background(), "BTC")

		decision := m.Confirm(context.Background())
		assertions.Equal(quote.Navigate(quote.PagePay), decision)
		assertions.Equal(1, service.AcceptCalls())
	})

	t.Run("FailureFillsErrorSlot", func(t *testing.T) {
		assertions := assert.New(t)

		id := uuid.New()
		service := mock.New()
		service.ServeSummary(pendingSummary(id))
		service.FailAccept(&apierror.Error{Code: apierror.CodeUnexpected, Message: "boom"})
		m := newMachine(service, id)
		m.Start(context.Background())
		m.Select(context.Background(), "BTC")

		decision := m.Confirm(context.Background())
		assertions.False(decision.Navigate)

		apiErr, ok := apierror.AsError(m.Err())
		assertions.True(ok)
		assertions.Equal(apierror.CodeUnexpected, apiErr.Code)
	})
}

func Test_Machine_Run_SilentRefresh(t *testing.T) {
	assertions := assert.New(t)

	c := &clock{now: time.UnixMilli(1_700_000_000_000)}
	id := uuid.New()

	initial := pendingSummary(id)
	initial.AcceptanceExpiryDate = transactions.FromTime(c.Now().Add(2 * time.Second))
	service := mock.New()
	service.ServeSummary(initial)

	m := quote.New(quote.Config{
		Id:       id,
		Service:  service,
		Interval: time.Millisecond,
		Now:      c.Now,
		Logger:   zerolog.Nop(),
	})
	m.Start(context.Background())
	m.Select(context.Background(), "ETH")
	assertions.Len(service.Updates(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// Let the countdown run out while ETH is selected
	c.Advance(3 * time.Second)

	deadline := time.Now().Add(time.Second)
	for len(service.Updates()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	updates := service.Updates()
	assertions.Len(updates, 2, "exactly one refresh per expired deadline")
	assertions.Equal("ETH", updates[1].Currency)
	assertions.False(m.Decision().Navigate, "a silent refresh is not a navigation")

	// The deadline did not move, so no further refresh may fire
	time.Sleep(50 * time.Millisecond)
	assertions.Len(service.Updates(), 2)
}

func Test_Machine_Run_NoSelectionNoRefresh(t *testing.T) {
	assertions := assert.New(t)

	c := &clock{now: time.UnixMilli(1_700_000_000_000)}
	id := uuid.New()

	initial := pendingSummary(id)
	initial.AcceptanceExpiryDate = transactions.FromTime(c.Now().Add(time.Second))
	service := mock.New()
	service.ServeSummary(initial)

	m := quote.New(quote.Config{
		Id:       id,
		Service:  service,
		Interval: time.Millisecond,
		Now:      c.Now,
		Logger:   zerolog.Nop(),
	})
	m.Start(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	c.Advance(2 * time.Second)
	time.Sleep(50 * time.Millisecond)
	assertions.Empty(service.Updates(), "no currency selected means nothing to refresh")
}
