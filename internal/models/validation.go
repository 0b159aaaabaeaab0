package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// FieldError describes one rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError is returned when optimization input is malformed.
// It is distinct from any optimization outcome: no strategy has run.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, rule, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Rule: rule, Message: message})
}

func (e *ValidationError) addStructErrors(prefix string, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		e.add(prefix, "invalid", err.Error())
		return
	}
	for _, fe := range verrs {
		field := fe.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		if prefix != "" {
			field = prefix + "." + field
		}
		msg := fe.Tag()
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		e.add(field, fe.Tag(), "failed "+msg+fmt.Sprintf(" (got %v)", fe.Value()))
	}
}

// ValidateInput checks places, constraints and weights before any strategy runs
func ValidateInput(places []Place, constraints Constraints, weights Weights) error {
	v := validatorInstance()
	verr := &ValidationError{}

	if len(places) == 0 {
		verr.add("places", "required", "at least one place is required")
	}

	seen := make(map[string]int, len(places))
	for i := range places {
		prefix := fmt.Sprintf("places[%d]", i)
		if err := v.Struct(&places[i]); err != nil {
			verr.addStructErrors(prefix, err)
		}
		if places[i].ID == "" {
			continue
		}
		if first, ok := seen[places[i].ID]; ok {
			verr.add(prefix+".id", "unique", fmt.Sprintf("duplicate id %q (first at places[%d])", places[i].ID, first))
			continue
		}
		seen[places[i].ID] = i
	}

	if err := v.Struct(&constraints); err != nil {
		verr.addStructErrors("constraints", err)
	}

	if err := v.Struct(&weights); err != nil {
		verr.addStructErrors("weights", err)
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
