package currencies

import (
	"context"

	"github.com/rs/zerolog"
)

// Protocol a currency can settle over
type Protocol struct {
	Code        string `json:"code"`
	Network     string `json:"network"`
	NetworkCode string `json:"networkCode"`
}

// Currency descriptor as reported by the merchant API
type Currency struct {
	Id                  int        `json:"id"`
	Code                string     `json:"code"`
	Fiat                bool       `json:"fiat"`
	Name                string     `json:"name"`
	Icon                string     `json:"icon,omitzero"`
	Protocols           []Protocol `json:"protocols"`
	WithdrawalFee       float64    `json:"withdrawalFee"`
	DepositFee          float64    `json:"depositFee"`
	SupportsDeposits    bool       `json:"supportsDeposits"`
	SupportsWithdrawals bool       `json:"supportsWithdrawals"`
	QuantityPrecision   int        `json:"quantityPrecision"`
	PricePrecision      int        `json:"pricePrecision"`
}

// Source lists the currencies the merchant API supports
type Source interface {
	SupportedCurrencies(ctx context.Context) (currencies []Currency, err error)
}

// Store is the process wide supported currency list. It is populated
// once during bootstrap and read only afterwards, consumers receive it
// by injection rather than through an ambient singleton
type Store struct {
	currencies []Currency
	byCode     map[string]Currency
}

func NewStore(currencies []Currency) (store *Store) {
	store = &Store{
		currencies: currencies,
		byCode:     make(map[string]Currency, len(currencies)),
	}
	for _, currency := range currencies {
		store.byCode[currency.Code] = currency
	}
	return store
}

// Load fetches the supported currency list once. On failure it falls
// back to the built in defaults instead of blocking the checkout
func Load(ctx context.Context, source Source, logger zerolog.Logger) (store *Store) {
	currencies, err := source.SupportedCurrencies(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("falling back to default supported currencies")
		return NewStore(Defaults())
	}
	return NewStore(currencies)
}

// Name resolves a currency code to its display name
func (s *Store) Name(code string) (name string, found bool) {
	currency, found := s.byCode[code]
	return currency.Name, found
}

func (s *Store) Get(code string) (currency Currency, found bool) {
	currency, found = s.byCode[code]
	return currency, found
}

// All returns a copy of the supported currency list
func (s *Store) All() (currencies []Currency) {
	currencies = make([]Currency, len(s.currencies))
	copy(currencies, s.currencies)
	return currencies
}

func (s *Store) Len() (n int) {
	return len(s.currencies)
}
