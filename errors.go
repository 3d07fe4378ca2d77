package economy

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// Validation errors. These are raised before any store mutation,
	// so a failing call never leaves a partial write behind.
	ErrInvalidType     = errors.New("economy: invalid argument type")
	ErrInvalidKey      = errors.New("economy: unknown settings key")
	ErrInvalidProperty = errors.New("economy: unsupported currency property")

	// Lookup errors
	ErrCurrencyNotFound = errors.New("economy: currency not found")

	// Store errors
	ErrGuildNotFound = errors.New("economy: guild not found")
	ErrStoreClosed   = errors.New("economy: store is closed")
	ErrPathMalformed = errors.New("economy: malformed document path")

	// Cache errors
	ErrCacheMiss = errors.New("economy: cache miss")
)

// ValidationError carries detail about which argument failed validation.
// It wraps one of the validation sentinels so errors.Is keeps working.
type ValidationError struct {
	Sentinel error
	Argument string
	Message  string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Sentinel, e.Argument, e.Message)
}

// Unwrap exposes the underlying sentinel.
func (e ValidationError) Unwrap() error { return e.Sentinel }

// invalidType builds an ErrInvalidType with argument context.
func invalidType(argument, message string) error {
	return ValidationError{Sentinel: ErrInvalidType, Argument: argument, Message: message}
}

// IsValidation returns true if the error is a pre-mutation validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrInvalidProperty)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCurrencyNotFound) ||
		errors.Is(err, ErrGuildNotFound)
}
