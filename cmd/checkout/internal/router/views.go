package router

import (
	"embed"
	"html/template"
	"time"

	"anarchy.ttfm/payin/countdown"
	"anarchy.ttfm/payin/quote"
	"anarchy.ttfm/payin/transactions"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates parses the embedded page templates
func Templates() (templates *template.Template) {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"shorten": ShortenAddress,
	}).ParseFS(templatesFS, "templates/*.html"))
}

// ShortenAddress renders an address as its first 6 and last 4 characters
func ShortenAddress(address string) (short string) {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// CopyResetTime is how long the copy affordance shows its copied state
const CopyResetTime = 5 * time.Second

// PaymentOption is one entry of the currency selector
type PaymentOption struct {
	Code     string
	Name     string
	Selected bool
}

type AcceptView struct {
	Id                  string
	MerchantDisplayName string
	Reference           string
	DisplayAmount       float64
	DisplayCurrency     string
	Options             []PaymentOption
	HasSelection        bool
	Selected            string
	AmountDue           float64
	AmountDueCurrency   string
	QuoteClock          string
	Loading             bool
}

type PayView struct {
	Id              string
	MerchantName    string
	AmountDue       float64
	Currency        string
	Address         string
	AddressShort    string
	Tag             string
	Uri             string
	TimeLeft        string
	CopyResetMillis int64
}

type ErrorView struct {
	Title        string
	Detail       string
	AllowRefresh bool
	RefreshPath  string
}

type ExpiredView struct {
	MerchantDisplayName string
	Reference           string
}

func (r *Router) acceptView(m *quote.Machine) (view AcceptView) {
	view.Id = m.Id().String()
	view.Selected = m.Selected()
	view.HasSelection = view.Selected != transactions.PaymentMethodNone
	view.Loading = m.Loading()

	summary, ok := m.Transaction()
	if !ok {
		return view
	}

	view.MerchantDisplayName = summary.MerchantDisplayName
	view.Reference = summary.Reference
	view.DisplayAmount = summary.DisplayCurrency.Amount
	view.DisplayCurrency = summary.DisplayCurrency.Currency

	// Only currencies the supported list can name are offered
	for _, option := range summary.CurrencyOptions {
		name, found := r.Currencies.Name(option.Code)
		if !found {
			continue
		}
		view.Options = append(view.Options, PaymentOption{
			Code:     option.Code,
			Name:     name,
			Selected: option.Code == view.Selected,
		})
	}

	if view.HasSelection && summary.PaidCurrency != nil {
		view.AmountDue = summary.PaidCurrency.Amount
		view.AmountDueCurrency = summary.PaidCurrency.Currency
		view.QuoteClock = countdown.At(summary.AcceptanceExpiryDate, time.Now()).Formatted
	}
	return view
}

func (r *Router) payView(p *quote.PayMachine) (view PayView) {
	summary, ok := p.Transaction()
	if !ok {
		view.TimeLeft = countdown.PlaceholderClock
		return view
	}

	r.storePaySummary(summary)

	view.Id = summary.Uuid.String()
	view.MerchantName = summary.MerchantDisplayName
	view.TimeLeft = p.Countdown().Formatted
	view.CopyResetMillis = CopyResetTime.Milliseconds()
	if summary.PaidCurrency != nil {
		view.AmountDue = summary.PaidCurrency.Amount
		view.Currency = summary.PaidCurrency.Currency
	}
	if summary.Address != nil {
		view.Address = summary.Address.Address
		view.AddressShort = ShortenAddress(summary.Address.Address)
		view.Tag = summary.Address.Tag
		view.Uri = summary.Address.Uri
	}
	return view
}

func (r *Router) storePaySummary(summary transactions.Summary) {
	err := r.Cache.Put(summary)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("failed to cache summary")
	}
}
