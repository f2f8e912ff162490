package session

import (
	"errors"
	"net/http"

	"argus/internal/explain"
	"argus/internal/results"
)

// Domain errors for workflow actions. All four are conflicts: the
// action is well-formed but the session is not in a phase that admits
// it right now.
var (
	ErrNoDate              = errors.New("no date confirmed")
	ErrNoSelection         = errors.New("no anomaly selected")
	ErrExplanationInFlight = errors.New("explanation request already in flight")
	ErrSuperseded          = errors.New("explanation superseded by a newer action")
)

// MapHTTPStatus maps workflow errors, including the result and
// explanation errors that surface through workflow actions, to HTTP
// status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoDate),
		errors.Is(err, ErrNoSelection),
		errors.Is(err, ErrExplanationInFlight),
		errors.Is(err, ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, explain.ErrInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, explain.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return results.MapHTTPStatus(err)
	}
}
