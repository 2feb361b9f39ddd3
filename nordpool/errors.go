package nordpool

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when the API answers 204: the prices for the
// requested date have not been published yet. Callers retry on it.
var ErrNoData = errors.New("day-ahead prices not published yet")

// StatusError is any other non-success HTTP status from the data portal.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from price api", e.Code)
}

// MalformedPriceError means the response body did not match the expected
// shape: missing fields, a missing delivery area or a non-numeric price.
// It usually indicates an upstream contract change.
type MalformedPriceError struct {
	Reason string
	Cause  error
}

func (e *MalformedPriceError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("malformed price data: %s", e.Reason)
	}
	return fmt.Sprintf("malformed price data: %s: %v", e.Reason, e.Cause)
}

func (e *MalformedPriceError) Unwrap() error {
	return e.Cause
}
