package transactions

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Millis is an instant expressed as milliseconds since the Unix epoch.
// The zero value means the instant is absent.
type Millis int64

func (m Millis) IsZero() (zero bool) {
	return m == 0
}

func (m Millis) Time() (t time.Time) {
	return time.UnixMilli(int64(m))
}

func FromTime(t time.Time) (m Millis) {
	return Millis(t.UnixMilli())
}

// Amount of money in a single denomination
type Amount struct {
	// Currency code of the denomination
	Currency string `json:"currency"`
	// Amount expected
	Amount float64 `json:"amount"`
	// Amount actually received so far
	Actual float64 `json:"actual"`
}

// Exchange rate between two currencies
type ExchangeRate struct {
	Base    string  `json:"base"`
	Counter string  `json:"counter"`
	Rate    float64 `json:"rate"`
}

// Settlement currency the payer may choose, with its supported protocols
type CurrencyOption struct {
	Code      string   `json:"code"`
	Protocols []string `json:"protocols"`
}

// Deposit address details, present once a quote has been accepted
type Address struct {
	// Address to deposit the funds to
	Address string `json:"address"`
	// Alternative deposit addresses
	Alternatives []string `json:"alternatives"`
	// Network protocol of the address
	Protocol string `json:"protocol"`
	// Optional destination tag
	Tag string `json:"tag,omitzero"`
	// Payment URI for QR encoding
	Uri string `json:"uri"`
}

// Summary is the server owned snapshot of a single pay-in transaction.
// It is fetched read-only and refreshed by re-fetch or by merging an
// update response over the previous snapshot.
type Summary struct {
	// Identifier of the transaction
	Uuid uuid.UUID `json:"uuid"`
	// Display name of the merchant requesting the payment
	MerchantDisplayName string `json:"merchantDisplayName"`
	// Identifier of the merchant
	MerchantId string `json:"merchantId"`
	// Creation time of the transaction
	DateCreated Millis `json:"dateCreated"`
	// Overall transaction deadline. Governs the payment page redirect
	ExpiryDate Millis `json:"expiryDate"`
	// Deadline of the currently quoted price
	QuoteExpiryDate Millis `json:"quoteExpiryDate,omitzero"`
	// Deadline for accepting the current quote. Governs price refresh
	AcceptanceExpiryDate Millis `json:"acceptanceExpiryDate,omitzero"`
	// Lifecycle of the current price quote
	QuoteStatus QuoteStatus `json:"quoteStatus"`
	// Merchant supplied reference
	Reference string `json:"reference"`
	// Direction of the transaction
	Type string `json:"type"`
	// Sub type, merchantPayIn for this flow
	SubType string `json:"subType"`
	// Lifecycle of the underlying transaction
	Status Status `json:"status"`
	// Amount in the merchant's display denomination
	DisplayCurrency Amount `json:"displayCurrency"`
	// Amount in the merchant's wallet denomination
	WalletCurrency Amount `json:"walletCurrency"`
	// Amount in the selected settlement currency. Nil until a currency is quoted
	PaidCurrency *Amount `json:"paidCurrency"`
	// Fee charged for the transaction
	FeeCurrency Amount `json:"feeCurrency"`
	// Network fee charged for the transaction
	NetworkFeeCurrency Amount `json:"networkFeeCurrency"`
	// Rate between display and settlement currency
	DisplayRate *ExchangeRate `json:"displayRate"`
	// Rate between wallet and settlement currency
	ExchangeRate *ExchangeRate `json:"exchangeRate"`
	// Deposit address. Nil until a quote is accepted
	Address *Address `json:"address"`
	ReturnUrl   string `json:"returnUrl,omitzero"`
	RedirectUrl string `json:"redirectUrl,omitzero"`
	// Settlement currencies the payer may choose from
	CurrencyOptions    []CurrencyOption `json:"currencyOptions"`
	Flow               string           `json:"flow,omitzero"`
	TwoStep            bool             `json:"twoStep"`
	Pegged             bool             `json:"pegged"`
	CustomerId         string           `json:"customerId"`
	NetworkFeeBilledTo string           `json:"networkFeeBilledTo"`
	WalletId           string           `json:"walletId"`
}

var (
	ErrMissingUuid      = errors.New("summary is missing its transaction uuid")
	ErrMissingReference = errors.New("summary is missing its merchant reference")
)

// Validate that the summary carries the fields every consumer relies on.
// A summary failing validation is treated as an invalid transaction
func (s *Summary) Validate() (err error) {
	if s.Uuid == uuid.Nil {
		return ErrMissingUuid
	}
	if s.Reference == "" {
		return ErrMissingReference
	}
	err = s.Status.Validate()
	if err != nil {
		return fmt.Errorf("summary %s: %w", s.Uuid, err)
	}
	err = s.QuoteStatus.Validate()
	if err != nil {
		return fmt.Errorf("summary %s: %w", s.Uuid, err)
	}
	return nil
}

func (s *Summary) Bytes() (bytes []byte) {
	bytes, _ = json.Marshal(s)
	return bytes
}

func (s *Summary) FromBytes(b []byte) (err error) {
	return json.Unmarshal(b, s)
}

// PaymentMethodNone is the sentinel for "no settlement currency chosen yet"
const PaymentMethodNone = "none"

// PayInMethodCrypto is the only pay-in method this flow quotes
const PayInMethodCrypto = "crypto"

// UpdateSummaryRequest asks the server to quote the transaction in a currency
type UpdateSummaryRequest struct {
	// Settlement currency to quote
	Currency string `json:"currency"`
	// Pay-in method, crypto for this flow
	PayInMethod string `json:"payInMethod,omitzero"`
}
