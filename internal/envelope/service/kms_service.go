package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// kmsService implements KMSService using gocloud.dev/secrets.
type kmsService struct{}

// NewKMSService creates a KMSService backed by the gocloud.dev/secrets URL mux.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper opens the keeper at keyURI.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
//
// Errors from the keeper never carry base64key:// key material.
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (envelopeDomain.KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, redactKeeperError(fmt.Sprintf("failed to open KMS keeper %s", envelopeDomain.RedactKeyID(keyURI)), err)
	}
	return &redactingKeeper{keeper: keeper}, nil
}

// redactingKeeper scrubs key material from the errors of a *secrets.Keeper.
type redactingKeeper struct {
	keeper *secrets.Keeper
}

func (r *redactingKeeper) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	wrapped, err := r.keeper.Encrypt(ctx, plaintext)
	if err != nil {
		return nil, redactKeeperError("keeper encrypt", err)
	}
	return wrapped, nil
}

func (r *redactingKeeper) Close() error {
	if err := r.keeper.Close(); err != nil {
		return redactKeeperError("keeper close", err)
	}
	return nil
}

// keeperError is a keeper failure whose message has been redacted. The driver
// error stays in the chain so gcerrors.Code can still classify it.
type keeperError struct {
	msg string
	err error
}

func (e *keeperError) Error() string { return e.msg }
func (e *keeperError) Unwrap() error { return e.err }

func redactKeeperError(op string, err error) error {
	return &keeperError{msg: op + ": " + envelopeDomain.RedactKeyMaterial(err.Error()), err: err}
}
