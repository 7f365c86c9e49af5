package api

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when the backend answers with an empty body.
// The request is not retried and the cache is left untouched.
var ErrNoData = errors.New("empty response body")

// TransportError reports a network failure or a non-2xx response. It is
// never cached, so the next identical request goes back to the network.
type TransportError struct {
	Status     int
	StatusText string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %v", e.Err)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.StatusText)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DataInsufficientError is the backend's "Not enough monitoring data"
// answer. It carries the original query parameters so the caller can tell
// which query was underpopulated.
type DataInsufficientError struct {
	Params string
}

func (e *DataInsufficientError) Error() string {
	return fmt.Sprintf("not enough monitoring data for query %q", e.Params)
}
