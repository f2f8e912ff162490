package explain

import "errors"

// Domain errors for explanation operations.
var (
	ErrInvalidIndex     = errors.New("anomaly index out of range")
	ErrGenerationFailed = errors.New("explanation generation failed")
)
