package blinds

import (
	"errors"
	"fmt"
)

// ErrPresetNotFound is returned when a preset id is unknown.
var ErrPresetNotFound = errors.New("preset not found")

// ValidationError reports a malformed blind configuration.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
