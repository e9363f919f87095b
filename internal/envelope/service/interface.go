// Package service implements the envelope encryption core: key providers that obtain
// a data key from a KMS, the AES-256-GCM AEAD, and the envelope cipher that encrypts
// a buffer and describes the result as S3 client-side-encryption metadata.
package service

import (
	"context"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
)

// AEAD is an authenticated cipher bound to one key.
type AEAD interface {
	// Encrypt seals plaintext under a freshly generated random nonce and returns the
	// ciphertext with the tag appended, and the nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)
}

// AEADManager creates AEAD instances for a content algorithm identifier.
type AEADManager interface {
	CreateCipher(key []byte, contentAlgorithm string) (AEAD, error)
}

// KeyProvider obtains a fresh data key and its wrapped form from a key management service.
//
// Implementations block until the service answers, never retry, and never return a
// partial key: on error the DataKey is nil and any plaintext received is wiped.
type KeyProvider interface {
	GenerateDataKey(
		ctx context.Context,
		masterKeyID string,
		encCtx envelopeDomain.EncryptionContext,
		spec envelopeDomain.KeySpec,
	) (*envelopeDomain.DataKey, error)
}

// EnvelopeCipher encrypts a buffer under a data key and returns the ciphertext together
// with the metadata needed to decrypt it. The data key is destroyed before Encrypt returns.
type EnvelopeCipher interface {
	Encrypt(
		plaintext []byte,
		dataKey *envelopeDomain.DataKey,
		masterKeyID string,
		encCtx envelopeDomain.EncryptionContext,
	) (*envelopeDomain.EncryptionResult, error)
}

// KMSService opens keepers for gocloud.dev/secrets key URLs.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (envelopeDomain.KMSKeeper, error)
}
