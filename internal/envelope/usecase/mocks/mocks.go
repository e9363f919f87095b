// Package mocks provides mock implementations for testing envelope use cases and
// the commands built on them.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
	envelopeUsecase "github.com/allisson/kms-envelope/internal/envelope/usecase"
)

// MockKeyProvider is a mock implementation of service.KeyProvider.
type MockKeyProvider struct {
	mock.Mock
}

// GenerateDataKey mocks the GenerateDataKey method of KeyProvider.
func (m *MockKeyProvider) GenerateDataKey(
	ctx context.Context,
	masterKeyID string,
	encCtx envelopeDomain.EncryptionContext,
	spec envelopeDomain.KeySpec,
) (*envelopeDomain.DataKey, error) {
	args := m.Called(ctx, masterKeyID, encCtx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeDomain.DataKey), args.Error(1)
}

// MockEnvelopeCipher is a mock implementation of service.EnvelopeCipher.
type MockEnvelopeCipher struct {
	mock.Mock
}

// Encrypt mocks the Encrypt method of EnvelopeCipher.
func (m *MockEnvelopeCipher) Encrypt(
	plaintext []byte,
	dataKey *envelopeDomain.DataKey,
	masterKeyID string,
	encCtx envelopeDomain.EncryptionContext,
) (*envelopeDomain.EncryptionResult, error) {
	args := m.Called(plaintext, dataKey, masterKeyID, encCtx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeDomain.EncryptionResult), args.Error(1)
}

// MockObjectRepository is a mock implementation of usecase.ObjectRepository.
type MockObjectRepository struct {
	mock.Mock
}

// ObjectKey mocks the ObjectKey method of ObjectRepository.
func (m *MockObjectRepository) ObjectKey(sourcePath string) string {
	args := m.Called(sourcePath)
	return args.String(0)
}

// Put mocks the Put method of ObjectRepository.
func (m *MockObjectRepository) Put(
	ctx context.Context,
	key string,
	ciphertext []byte,
	metadata envelopeDomain.Metadata,
) error {
	args := m.Called(ctx, key, ciphertext, metadata)
	return args.Error(0)
}

// MockEncryptUseCase is a mock implementation of usecase.EncryptUseCase.
type MockEncryptUseCase struct {
	mock.Mock
}

// Encrypt mocks the Encrypt method of EncryptUseCase.
func (m *MockEncryptUseCase) Encrypt(
	ctx context.Context,
	input *envelopeUsecase.EncryptInput,
) (*envelopeDomain.EncryptionResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeDomain.EncryptionResult), args.Error(1)
}

// EncryptFile mocks the EncryptFile method of EncryptUseCase.
func (m *MockEncryptUseCase) EncryptFile(
	ctx context.Context,
	input *envelopeUsecase.EncryptFileInput,
) (*envelopeUsecase.EncryptFileOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeUsecase.EncryptFileOutput), args.Error(1)
}
