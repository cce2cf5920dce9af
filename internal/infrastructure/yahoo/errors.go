package yahoo

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when Yahoo reports that it has nothing for a symbol
// (delisted, unknown or never traded).
var ErrNoData = errors.New("yahoo: no data for symbol")

// APIError is a non-200 response from Yahoo Finance.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo %s: unexpected status %d", e.Endpoint, e.StatusCode)
}
