package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"gocloud.dev/gcerrors"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
	apperrors "github.com/allisson/kms-envelope/internal/errors"
)

// KeeperKeyProvider generates a data key locally and wraps it with a
// gocloud.dev/secrets keeper (awskms, gcpkms, azurekeyvault, hashivault, base64key).
//
// Keeper drivers do not accept an encryption context, so the context is only
// recorded in the metadata; it is not bound to the wrapped key.
type KeeperKeyProvider struct {
	kmsService KMSService
	random     io.Reader
}

// NewKeeperKeyProvider creates a key provider that opens keepers through kmsService.
func NewKeeperKeyProvider(kmsService KMSService) *KeeperKeyProvider {
	return &KeeperKeyProvider{kmsService: kmsService, random: rand.Reader}
}

// GenerateDataKey draws spec.Size() random bytes and wraps them under the keeper
// at masterKeyID, a keeper URL.
func (p *KeeperKeyProvider) GenerateDataKey(
	ctx context.Context,
	masterKeyID string,
	encCtx envelopeDomain.EncryptionContext,
	spec envelopeDomain.KeySpec,
) (*envelopeDomain.DataKey, error) {
	if err := encCtx.Validate(); err != nil {
		return nil, p.fail(masterKeyID, err)
	}
	if spec.Size() == 0 {
		return nil, p.fail(masterKeyID, fmt.Errorf("%w: unsupported key spec %q", envelopeDomain.ErrInvalidKeySize, spec))
	}

	keeper, err := p.kmsService.OpenKeeper(ctx, masterKeyID)
	if err != nil {
		return nil, p.fail(masterKeyID, fmt.Errorf("%w: %s", envelopeDomain.ErrKeyNotFound, keeperDetail(err)))
	}
	defer func() {
		_ = keeper.Close()
	}()

	plaintext := make([]byte, spec.Size())
	if _, err := io.ReadFull(p.random, plaintext); err != nil {
		clear(plaintext)
		return nil, p.fail(masterKeyID, apperrors.Wrapf(apperrors.ErrInternal, "failed to generate data key: %v", err))
	}

	wrapped, err := keeper.Encrypt(ctx, plaintext)
	if err != nil {
		clear(plaintext)
		return nil, p.fail(masterKeyID, classifyKeeperError(err))
	}

	dataKey, err := envelopeDomain.NewDataKey(plaintext, wrapped, spec)
	if err != nil {
		return nil, p.fail(masterKeyID, err)
	}
	return dataKey, nil
}

func (p *KeeperKeyProvider) fail(masterKeyID string, err error) error {
	return &envelopeDomain.KeyProviderError{Op: "GenerateDataKey", KeyID: envelopeDomain.RedactKeyID(masterKeyID), Err: err}
}

// classifyKeeperError maps a portable gocloud error code to a key provider failure.
func classifyKeeperError(err error) error {
	switch gcerrors.Code(err) {
	case gcerrors.PermissionDenied, gcerrors.FailedPrecondition:
		return fmt.Errorf("%w: %s", envelopeDomain.ErrUnauthorized, keeperDetail(err))
	case gcerrors.NotFound:
		return fmt.Errorf("%w: %s", envelopeDomain.ErrKeyNotFound, keeperDetail(err))
	case gcerrors.InvalidArgument:
		return fmt.Errorf("%w: %s", envelopeDomain.ErrInvalidContext, keeperDetail(err))
	default:
		return fmt.Errorf("%w: %s", envelopeDomain.ErrTransientService, keeperDetail(err))
	}
}

// keeperDetail is the driver message with any base64key:// URL redacted.
// The driver error is flattened to text and not kept in the chain.
func keeperDetail(err error) string {
	return envelopeDomain.RedactKeyMaterial(err.Error())
}
