package transactions

import "errors"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusExpired   Status = "EXPIRED"
)

var ErrInvalidStatus = errors.New("invalid transaction status")

// Validate if the provided status is a known lifecycle state
func (s Status) Validate() (err error) {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusExpired:
		return nil
	default:
		return ErrInvalidStatus
	}
}

type QuoteStatus string

const (
	QuotePending  QuoteStatus = "PENDING"
	QuoteExpired  QuoteStatus = "EXPIRED"
	QuoteAccepted QuoteStatus = "ACCEPTED"
	QuoteFailed   QuoteStatus = "FAILED"
	QuoteTemplate QuoteStatus = "TEMPLATE"
)

var ErrInvalidQuoteStatus = errors.New("invalid quote status")

// Validate if the provided quote status is a known lifecycle state
func (s QuoteStatus) Validate() (err error) {
	switch s {
	case QuotePending, QuoteExpired, QuoteAccepted, QuoteFailed, QuoteTemplate:
		return nil
	default:
		return ErrInvalidQuoteStatus
	}
}
