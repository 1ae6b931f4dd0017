package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidInput wraps every input validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden indicates the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrProfileNotPersisted is returned alongside a valid session when the profile row
	// could not be written after the auth provider accepted the credentials.
	ErrProfileNotPersisted = errors.New("profile not persisted")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func checkLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min {
		if min == 1 {
			return invalidf("%s is required", field)
		}
		return invalidf("%s must be at least %d characters", field, min)
	}
	if n > max {
		return invalidf("%s must be at most %d characters", field, max)
	}
	return nil
}

// checkPositive rejects zero, negatives, NaN and infinities.
func checkPositive(field string, value float64) error {
	if !(value > 0) || math.IsInf(value, 0) {
		return invalidf("%s must be greater than zero", field)
	}
	return nil
}
