package record

import (
	"errors"
	"fmt"
)

// ErrValidation is the sentinel kind for all schema validation failures.
var ErrValidation = errors.New("validation failed")

// FieldError reports a validation failure with field-level detail.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes every FieldError match ErrValidation for errors.Is callers.
func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}
