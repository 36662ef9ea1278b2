package apierror

import "fmt"

// Code is one of the closed set of domain error codes the merchant API returns
type Code string

const (
	// The transaction has expired
	CodeExpired Code = "MER-PAY-2004"
	// The transaction was not found
	CodeNotFound Code = "MER-PAY-2008"
	// The payment status can no longer be changed
	CodeStatusChange Code = "MER-PAY-2017"
	// The payout address was rejected
	CodePayoutAddress Code = "MER-PAY-2028"
	// Catch-all for unexpected server failures
	CodeUnexpected Code = "MER-PAY-4002"
)

func (c Code) Valid() (valid bool) {
	switch c {
	case CodeExpired, CodeNotFound, CodeStatusChange, CodePayoutAddress, CodeUnexpected:
		return true
	default:
		return false
	}
}

// Error is the structured rejection the merchant API responds with
type Error struct {
	// Code of the rejection
	Code Code `json:"code"`
	// Raw server message. Not meant for the payer, see Messages
	Message string `json:"message"`
	// HTTP status as reported by the server
	Status string `json:"status,omitzero"`
	// Identifier of the failed request
	RequestId string `json:"requestId,omitzero"`
	// Link to the upstream documentation of the failure
	DocumentLink string `json:"documentLink,omitzero"`
}

func (e *Error) Error() (msg string) {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Messages maps every code to its fixed payer facing message.
// Exhaustiveness over the code set is asserted in tests
var Messages = map[Code]string{
	CodeStatusChange:  "Unable to change the status of this payment. Please create a new payment and try again.",
	CodeExpired:       "The transaction has expired. Please create a new payment and try again.",
	CodeNotFound:      "The payment you requested has not been found. Please create a new payment and try again.",
	CodePayoutAddress: "We couldn't process your payout request to the desired address, please try another one.",
	CodeUnexpected:    "An unexpected error occurred. Please refresh the page and try again.",
}

// GenericMessage is shown when the failure carries no known code
const GenericMessage = "An unexpected error occurred. Please refresh the page and try again."

// AllowRefresh holds the codes for which a manual refresh control is offered
var AllowRefresh = map[Code]bool{
	CodeUnexpected: true,
}

// IsQuoteExpired reports whether the code forces navigation to the
// expired page instead of an inline error display
func IsQuoteExpired(c Code) (expired bool) {
	return c == CodeExpired || c == CodeStatusChange
}

// Description is what the UI renders for a failure
type Description struct {
	// Title of the error card
	Title string
	// Fixed payer facing message
	Detail string
	// Whether a manual refresh control is offered
	AllowRefresh bool
}

// Describe resolves any failure into renderable copy.
// Unknown failure shapes get the generic message
func Describe(err error) (desc Description) {
	apiErr, ok := AsError(err)
	if !ok {
		return Description{Title: "Error", Detail: GenericMessage}
	}

	desc.Title = apiErr.Message
	if desc.Title == "" {
		desc.Title = "Error"
	}
	desc.Detail = Messages[apiErr.Code]
	if desc.Detail == "" {
		desc.Detail = GenericMessage
	}
	desc.AllowRefresh = AllowRefresh[apiErr.Code]
	return desc
}
