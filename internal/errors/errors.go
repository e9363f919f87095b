// Package errors provides standardized error categories shared by every layer of the
// envelope tool. Component errors wrap one of these so callers can branch on intent
// (bad input, missing key, denied access, unavailable service) without knowing which
// KMS backend or storage driver produced the failure.
package errors

import (
	"errors"
	"fmt"
)

// Standard error categories.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the caller is not allowed to perform the operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable indicates a remote dependency failed in a way that may succeed on retry.
	ErrUnavailable = errors.New("unavailable")

	// ErrInternal indicates a broken invariant inside the process.
	ErrInternal = errors.New("internal error")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
