package checkout

import (
	"fmt"
	"strings"
)

// Field reasons used by draft validation.
const (
	ReasonRequired     = "required"
	ReasonInvalid      = "invalid"
	ReasonBelowMinimum = "below-minimum"
)

// FieldError is one validation failure, addressed at a draft field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationErrors collects every failing field of a draft. Validation never
// stops at the first failure; the caller presents all problems at once.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return "draft validation failed: " + strings.Join(parts, "; ")
}
