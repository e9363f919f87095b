package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
	envelopeService "github.com/allisson/kms-envelope/internal/envelope/service"
	apperrors "github.com/allisson/kms-envelope/internal/errors"
	appValidation "github.com/allisson/kms-envelope/internal/validation"
)

// encryptUseCase implements EncryptUseCase.
type encryptUseCase struct {
	suite          envelopeDomain.CipherSuite
	keyProvider    envelopeService.KeyProvider
	envelopeCipher envelopeService.EnvelopeCipher
	objectRepo     ObjectRepository
	keyIDRule      validation.Rule
	logger         *slog.Logger
}

// NewEncryptUseCase creates an EncryptUseCase. keyIDRule validates master key
// identifiers for the configured provider (appValidation.KMSKeyID or
// appValidation.CloudURL).
func NewEncryptUseCase(
	suite envelopeDomain.CipherSuite,
	keyProvider envelopeService.KeyProvider,
	envelopeCipher envelopeService.EnvelopeCipher,
	objectRepo ObjectRepository,
	keyIDRule validation.Rule,
	logger *slog.Logger,
) EncryptUseCase {
	if keyIDRule == nil {
		keyIDRule = appValidation.KMSKeyID
	}
	return &encryptUseCase{
		suite:          suite,
		keyProvider:    keyProvider,
		envelopeCipher: envelopeCipher,
		objectRepo:     objectRepo,
		keyIDRule:      keyIDRule,
		logger:         logger,
	}
}

func (uc *encryptUseCase) validateEncryptInput(input *EncryptInput) error {
	if input == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "encrypt input is required")
	}
	return uc.validateMasterKeyID(input.MasterKeyID)
}

func (uc *encryptUseCase) validateEncryptFileInput(input *EncryptFileInput) error {
	if input == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "encrypt file input is required")
	}
	err := validation.ValidateStruct(input,
		validation.Field(&input.Path, validation.Required.Error("path is required")),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}
	return uc.validateMasterKeyID(input.MasterKeyID)
}

// validateMasterKeyID rejects a malformed identifier before any KMS call. The
// error is both ErrKeyNotFound and ErrInvalidInput.
func (uc *encryptUseCase) validateMasterKeyID(masterKeyID string) error {
	err := validation.Validate(masterKeyID,
		validation.Required.Error("master key id is required"),
		uc.keyIDRule,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", envelopeDomain.ErrKeyNotFound, appValidation.WrapValidationError(err))
	}
	return nil
}

// Encrypt validates input, obtains a data key and encrypts the buffer.
func (uc *encryptUseCase) Encrypt(
	ctx context.Context,
	input *EncryptInput,
) (*envelopeDomain.EncryptionResult, error) {
	if err := uc.validateEncryptInput(input); err != nil {
		return nil, err
	}
	return uc.encrypt(ctx, uc.operationLogger(input.MasterKeyID), input)
}

// EncryptFile reads the file at input.Path, encrypts it and stores the ciphertext
// under the repository's key for that path.
func (uc *encryptUseCase) EncryptFile(ctx context.Context, input *EncryptFileInput) (*EncryptFileOutput, error) {
	if err := uc.validateEncryptFileInput(input); err != nil {
		return nil, err
	}
	logger := uc.operationLogger(input.MasterKeyID).With(slog.String("path", input.Path))

	plaintext, err := os.ReadFile(input.Path)
	if err != nil {
		logger.Error("failed to read plaintext", slog.Any("error", err))
		return nil, &envelopeDomain.CipherError{Op: "read", Err: fmt.Errorf("%w: %v", envelopeDomain.ErrIO, err)}
	}
	defer memguard.WipeBytes(plaintext)

	result, err := uc.encrypt(ctx, logger, &EncryptInput{
		Plaintext:   plaintext,
		MasterKeyID: input.MasterKeyID,
		Context:     input.Context,
	})
	if err != nil {
		return nil, err
	}

	key := uc.objectRepo.ObjectKey(input.Path)
	if err := uc.objectRepo.Put(ctx, key, result.Ciphertext, result.Metadata); err != nil {
		logger.Error("failed to store ciphertext", slog.String("object_key", key), slog.Any("error", err))
		return nil, err
	}

	logger.Info("ciphertext stored", slog.String("object_key", key))
	return &EncryptFileOutput{ObjectKey: key, Result: result}, nil
}

func (uc *encryptUseCase) encrypt(
	ctx context.Context,
	logger *slog.Logger,
	input *EncryptInput,
) (*envelopeDomain.EncryptionResult, error) {
	dataKey, err := uc.keyProvider.GenerateDataKey(ctx, input.MasterKeyID, input.Context, uc.suite.KeySpec)
	if err != nil {
		logger.Error("failed to generate data key",
			slog.Any("error", err),
			slog.Bool("retryable", envelopeDomain.IsRetryable(err)),
		)
		return nil, err
	}
	defer dataKey.Destroy()

	logger.Debug("data key generated", slog.Any("data_key", dataKey))

	result, err := uc.envelopeCipher.Encrypt(input.Plaintext, dataKey, input.MasterKeyID, input.Context)
	if err != nil {
		logger.Error("failed to encrypt plaintext", slog.Any("error", err))
		return nil, err
	}

	logger.Info("plaintext encrypted",
		slog.Int("plaintext_bytes", len(input.Plaintext)),
		slog.Int("ciphertext_bytes", len(result.Ciphertext)),
		slog.Int("metadata_fields", result.Metadata.Len()),
	)
	return result, nil
}

func (uc *encryptUseCase) operationLogger(masterKeyID string) *slog.Logger {
	return uc.logger.With(
		slog.String("operation_id", uuid.Must(uuid.NewV7()).String()),
		slog.String("key_id", envelopeDomain.RedactKeyID(masterKeyID)),
	)
}
