package pricing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation_error")
	ErrNotFound           = errors.New("not_found")
	ErrPricingUnavailable = errors.New("pricing_unavailable")
	ErrDependency         = errors.New("dependency_error")
)

// ValidationError reports a missing or invalid input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Attr is one searched attribute of a failed lookup.
type Attr struct {
	Name  string
	Value string
}

// NotFoundError reports that no reference entry matched the searched attributes.
type NotFoundError struct {
	Lookup     string
	Attributes []Attr
}

func (e *NotFoundError) Error() string {
	parts := make([]string, 0, len(e.Attributes))
	for _, a := range e.Attributes {
		parts = append(parts, fmt.Sprintf("%s=%q", a.Name, a.Value))
	}
	return fmt.Sprintf("no se encontró %s para %s", e.Lookup, strings.Join(parts, ", "))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PricingUnavailableError reports an explicitly requested option without a
// resolvable price.
type PricingUnavailableError struct {
	Option string
	Code   string
}

func (e *PricingUnavailableError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("sin precio disponible para %s", e.Option)
	}
	return fmt.Sprintf("sin precio disponible para %s (%s)", e.Option, e.Code)
}

func (e *PricingUnavailableError) Is(target error) bool { return target == ErrPricingUnavailable }

// DependencyError wraps a failed reference-data read.
type DependencyError struct {
	Lookup string
	Err    error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Lookup, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

func (e *DependencyError) Is(target error) bool { return target == ErrDependency }

func dependency(lookup string, err error) error {
	return &DependencyError{Lookup: lookup, Err: err}
}
