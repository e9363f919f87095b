package service

import (
	"context"
	"errors"
	"time"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
	"github.com/allisson/kms-envelope/internal/metrics"
)

// keyProviderWithMetrics decorates KeyProvider with metrics instrumentation.
type keyProviderWithMetrics struct {
	next    KeyProvider
	metrics metrics.BusinessMetrics
}

// NewKeyProviderWithMetrics wraps a KeyProvider with metrics recording. The status
// label names the failure kind so denied and throttled calls can be told apart.
func NewKeyProviderWithMetrics(keyProvider KeyProvider, m metrics.BusinessMetrics) KeyProvider {
	return &keyProviderWithMetrics{
		next:    keyProvider,
		metrics: m,
	}
}

// GenerateDataKey records metrics for data key generation.
func (k *keyProviderWithMetrics) GenerateDataKey(
	ctx context.Context,
	masterKeyID string,
	encCtx envelopeDomain.EncryptionContext,
	spec envelopeDomain.KeySpec,
) (*envelopeDomain.DataKey, error) {
	start := time.Now()
	dataKey, err := k.next.GenerateDataKey(ctx, masterKeyID, encCtx, spec)

	status := keyProviderStatus(err)
	k.metrics.RecordOperation(ctx, "kms", "generate_data_key", status)
	k.metrics.RecordDuration(ctx, "kms", "generate_data_key", time.Since(start), status)

	return dataKey, err
}

func keyProviderStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, envelopeDomain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, envelopeDomain.ErrKeyNotFound):
		return "key_not_found"
	case errors.Is(err, envelopeDomain.ErrInvalidContext):
		return "invalid_context"
	case errors.Is(err, envelopeDomain.ErrTransientService):
		return "transient"
	default:
		return "error"
	}
}
