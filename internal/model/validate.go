package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a question loaded from a bank file. Struct tags cover the
// per-field constraints; the multiple-choice cross-field rules (options
// present, answer index in range) need explicit checks.
func (q *Question) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("question %q: %w", q.ID, err)
	}

	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("question %q: multiple choice needs at least 2 options, got %d", q.ID, len(q.Options))
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return fmt.Errorf("question %q: answer index %d out of range [0,%d)", q.ID, q.Answer, len(q.Options))
		}
		if q.Rubric != nil {
			return fmt.Errorf("question %q: multiple choice must not carry a rubric", q.ID)
		}
	case TypeOpen, TypeCode:
		if len(q.Options) > 0 {
			return fmt.Errorf("question %q: %s questions must not carry options", q.ID, q.Type)
		}
		if q.Rubric != nil && q.Rubric.MinKeywords > len(q.Rubric.Keywords) {
			return fmt.Errorf("question %q: minKeywords %d exceeds keyword count %d",
				q.ID, q.Rubric.MinKeywords, len(q.Rubric.Keywords))
		}
	}
	return nil
}
