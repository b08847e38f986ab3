// Package validation formats errors for enumerated values.
package validation

import (
	"fmt"
	"slices"
	"strings"
)

// FormatValidValues joins string-like values for error messages.
func FormatValidValues[T ~string](values []T) string {
	formatted := make([]string, 0, len(values))
	for _, value := range values {
		formatted = append(formatted, string(value))
	}
	return strings.Join(formatted, ", ")
}

// IsValidValue reports whether value is one of values.
func IsValidValue[T ~string](value T, values []T) bool {
	return slices.Contains(values, value)
}

// FormatInvalidValueError wraps base with the rejected value and the valid choices.
func FormatInvalidValueError[T ~string](base error, value T, values []T) error {
	return fmt.Errorf("%w: %q (valid: %s)", base, string(value), FormatValidValues(values))
}
