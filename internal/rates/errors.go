package rates

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when no snapshot was ever obtained, or when the requested
// symbol class holds no rates.
var ErrNoData = errors.New("no rate data available")

// ErrUnknownSymbol is returned when a base currency is absent from the raw snapshot.
var ErrUnknownSymbol = errors.New("currency symbol not found")

// ErrNonPositiveBaseRate rejects a base whose raw rate cannot be used as a divisor.
// It matches ErrUnknownSymbol under errors.Is.
var ErrNonPositiveBaseRate = fmt.Errorf("%w: base rate is not positive", ErrUnknownSymbol)

// ErrInvalidValue is returned when a query value fails numeric normalization.
var ErrInvalidValue = errors.New("invalid value")

// SourceUnavailableError reports a rate endpoint that did not answer with HTTP 200.
// StatusCode is zero when the request never got a response.
type SourceUnavailableError struct {
	StatusCode int
	Err        error
}

func (e *SourceUnavailableError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("rate source unavailable: %v", e.Err)
	}
	return fmt.Sprintf("rate source unavailable: status %d", e.StatusCode)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// MalformedSnapshotError reports a response body that is not a valid rate snapshot.
type MalformedSnapshotError struct {
	Err error
}

func (e *MalformedSnapshotError) Error() string {
	return fmt.Sprintf("malformed rate snapshot: %v", e.Err)
}

func (e *MalformedSnapshotError) Unwrap() error { return e.Err }
