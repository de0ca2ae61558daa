package redline

import (
	"fmt"
	"unicode/utf8"
)

// Default section length thresholds, in characters.
const (
	DefaultMinSectionLength = 2
	DefaultMaxSectionLength = 5
)

// DefaultLimits returns the default section length thresholds.
func DefaultLimits() Limits {
	return Limits{Min: DefaultMinSectionLength, Max: DefaultMaxSectionLength}
}

// Validate checks every section's text length against limits.
// A Max of zero or less disables the upper bound.
func Validate(sections []Section, limits Limits) ValidationResult {
	errs := []string{}
	for _, s := range sections {
		n := utf8.RuneCountInString(s.Text)
		if n < limits.Min {
			errs = append(errs, fmt.Sprintf("Section %q is too short (min %d chars).", s.Title, limits.Min))
		} else if limits.Max > 0 && n > limits.Max {
			errs = append(errs, fmt.Sprintf("Section %q is too long (max %d chars).", s.Title, limits.Max))
		}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
