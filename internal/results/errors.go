package results

import (
	"errors"
	"net/http"
)

// Domain errors for result operations. ErrSourceUnavailable marks one
// rung of the fallback chain; ErrUnavailable means the whole chain is
// exhausted and the workflow cannot proceed until data is produced
// externally.
var (
	ErrUnavailable       = errors.New("results data unavailable")
	ErrSourceUnavailable = errors.New("results source unavailable")
	ErrInvalidDate       = errors.New("invalid date")
)

// MapHTTPStatus maps result domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrInvalidDate) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
