package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
)

// HTTPError wraps a non 2xx response so the body survives until classification
type HTTPError struct {
	// Status code of the response
	StatusCode int
	// Raw response body
	Body []byte
}

func (e *HTTPError) Error() (msg string) {
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// AsError extracts the structured domain error from any failure value
func AsError(err error) (apiErr *Error, ok bool) {
	ok = errors.As(err, &apiErr)
	return apiErr, ok
}

type envelope struct {
	ErrorList []Error `json:"errorList"`
}

// Classify maps a transport failure to the structured domain error the
// response body carries, or returns the failure unchanged when the body
// does not match any known shape. The body may hold the error directly
// or wrap it in an errorList envelope, in which case the first element
// wins. Classify never fails on malformed input
func Classify(err error) (classified error) {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}

	var single Error
	if json.Unmarshal(httpErr.Body, &single) == nil && single.Code.Valid() {
		return &single
	}

	var wrapped envelope
	if json.Unmarshal(httpErr.Body, &wrapped) == nil && len(wrapped.ErrorList) > 0 && wrapped.ErrorList[0].Code.Valid() {
		first := wrapped.ErrorList[0]
		return &first
	}

	return err
}
