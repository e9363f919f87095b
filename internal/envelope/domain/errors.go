package domain

import (
	"fmt"

	"github.com/allisson/kms-envelope/internal/errors"
)

// Key provider failures.
//
// Every error returned by a KeyProvider wraps exactly one of these inside a
// *KeyProviderError. None of them is retried by the provider itself.
var (
	// ErrUnauthorized indicates the caller may not use the master key (denied,
	// bad credentials, or the key is disabled).
	ErrUnauthorized = errors.Wrap(errors.ErrUnauthorized, "kms access denied")

	// ErrKeyNotFound indicates the master key identifier is malformed or unknown.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "kms key not found")

	// ErrInvalidContext indicates the encryption context was rejected.
	ErrInvalidContext = errors.Wrap(errors.ErrInvalidInput, "invalid encryption context")

	// ErrTransientService indicates a network or service failure. The caller may retry.
	ErrTransientService = errors.Wrap(errors.ErrUnavailable, "kms service unavailable")
)

// Cipher and data key failures.
var (
	// ErrCipherInit indicates the AEAD could not be set up with the given key or
	// nonce. Given valid inputs this is unreachable; it is never silently repaired.
	ErrCipherInit = errors.Wrap(errors.ErrInternal, "cipher initialization failed")

	// ErrIO indicates reading the plaintext source or writing the ciphertext sink failed.
	ErrIO = errors.New("i/o failure")

	// ErrInvalidKeySize indicates a data key of the wrong length.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrEmptyWrappedKey indicates KMS returned no wrapped key.
	ErrEmptyWrappedKey = errors.Wrap(errors.ErrInvalidInput, "empty wrapped key")

	// ErrDataKeyDestroyed indicates a data key was used after its plaintext was wiped.
	ErrDataKeyDestroyed = errors.Wrap(errors.ErrInternal, "data key already destroyed")

	// ErrInvalidMetadata indicates a metadata line that cannot be parsed.
	ErrInvalidMetadata = errors.Wrap(errors.ErrInvalidInput, "invalid metadata")
)

// KeyProviderError is returned by KeyProvider implementations.
type KeyProviderError struct {
	Op    string // provider operation, e.g. "GenerateDataKey"
	KeyID string // master key identifier; never key material
	Err   error
}

func (e *KeyProviderError) Error() string {
	if e.KeyID == "" {
		return fmt.Sprintf("key provider %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("key provider %s %s: %v", e.Op, e.KeyID, e.Err)
}

func (e *KeyProviderError) Unwrap() error { return e.Err }

// CipherError is returned by the envelope cipher and by the I/O around it.
type CipherError struct {
	Op  string
	Err error
}

func (e *CipherError) Error() string {
	return fmt.Sprintf("cipher %s: %v", e.Op, e.Err)
}

func (e *CipherError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transient key provider failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientService)
}
