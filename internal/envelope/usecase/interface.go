// Package usecase orchestrates envelope encryption: a data key from the key provider,
// AES-GCM encryption under that key, and storage of the ciphertext.
package usecase

import (
	"context"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
)

// ObjectRepository stores ciphertext produced by an encryption.
type ObjectRepository interface {
	// ObjectKey returns the destination key for the plaintext at sourcePath.
	ObjectKey(sourcePath string) string
	Put(ctx context.Context, key string, ciphertext []byte, metadata envelopeDomain.Metadata) error
}

// EncryptInput is a request to encrypt an in-memory buffer.
type EncryptInput struct {
	Plaintext   []byte
	MasterKeyID string
	Context     envelopeDomain.EncryptionContext
}

// EncryptFileInput is a request to encrypt the file at Path.
type EncryptFileInput struct {
	Path        string
	MasterKeyID string
	Context     envelopeDomain.EncryptionContext
}

// EncryptFileOutput describes a stored ciphertext.
type EncryptFileOutput struct {
	ObjectKey string
	Result    *envelopeDomain.EncryptionResult
}

// EncryptUseCase defines the envelope encryption business logic.
type EncryptUseCase interface {
	// Encrypt returns the ciphertext and metadata for input.Plaintext. Nothing is
	// returned unless every step succeeded.
	Encrypt(ctx context.Context, input *EncryptInput) (*envelopeDomain.EncryptionResult, error)
	// EncryptFile reads, encrypts and stores a file. No object is written on failure.
	EncryptFile(ctx context.Context, input *EncryptFileInput) (*EncryptFileOutput, error)
}
