package scoring

import (
	"errors"

	"github.com/payguard/fraudml/pkg/features"
)

// ErrNotReady means the model or transform artifact is not loaded. The
// process keeps running in this degraded state; scoring calls fail fast.
var ErrNotReady = errors.New("scoring artifacts not loaded")

// ValidationError rejects a malformed scoring request before any work runs.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Detail
}

// StatusCode maps the error taxonomy to HTTP-style codes for an external
// request boundary: client faults are 400, everything else is 500.
func StatusCode(err error) int {
	var (
		validation *ValidationError
		schema     *features.SchemaError
	)
	switch {
	case err == nil:
		return 200
	case errors.As(err, &validation), errors.As(err, &schema):
		return 400
	default:
		return 500
	}
}
