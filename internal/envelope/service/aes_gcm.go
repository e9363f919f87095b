package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
)

// AESGCMCipher implements AEAD with AES-256-GCM.
//
// It uses the standard 12-byte nonce and 16-byte tag. The tag is appended to the
// ciphertext, which is the layout S3 client-side-encryption readers expect.
// A nonce is drawn from crypto/rand on every Encrypt call.
type AESGCMCipher struct {
	aead   cipher.AEAD
	random io.Reader
}

// NewAESGCM creates an AES-256-GCM cipher. The key must be exactly 32 bytes.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: key must be exactly 32 bytes, got %d", envelopeDomain.ErrCipherInit, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create AES cipher: %v", envelopeDomain.ErrCipherInit, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create GCM: %v", envelopeDomain.ErrCipherInit, err)
	}

	return &AESGCMCipher{aead: aead, random: rand.Reader}, nil
}

// Encrypt seals plaintext with a new random nonce. aad may be nil.
func (a *AESGCMCipher) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, a.aead.NonceSize())
	if _, err := io.ReadFull(a.random, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext = a.aead.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}
