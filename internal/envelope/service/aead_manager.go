package service

import (
	"fmt"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
)

// AEADManagerService implements AEADManager.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher creates the AEAD named by contentAlgorithm (the x-amz-cek-alg value).
// Only "AES/GCM/NoPadding" is supported.
func (am *AEADManagerService) CreateCipher(key []byte, contentAlgorithm string) (AEAD, error) {
	switch contentAlgorithm {
	case envelopeDomain.DefaultCipherSuite().ContentAlgorithm:
		return NewAESGCM(key)
	default:
		return nil, fmt.Errorf("%w: unsupported content algorithm %q", envelopeDomain.ErrCipherInit, contentAlgorithm)
	}
}
