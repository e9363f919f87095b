package usecase

import (
	"context"
	"strconv"
	"time"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
	"github.com/allisson/kms-envelope/internal/metrics"
)

// encryptUseCaseWithMetrics decorates EncryptUseCase with metrics instrumentation.
type encryptUseCaseWithMetrics struct {
	next    EncryptUseCase
	metrics metrics.BusinessMetrics
}

// NewEncryptUseCaseWithMetrics wraps an EncryptUseCase with metrics recording.
func NewEncryptUseCaseWithMetrics(useCase EncryptUseCase, m metrics.BusinessMetrics) EncryptUseCase {
	return &encryptUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Encrypt records metrics for buffer encryption.
func (e *encryptUseCaseWithMetrics) Encrypt(
	ctx context.Context,
	input *EncryptInput,
) (*envelopeDomain.EncryptionResult, error) {
	start := time.Now()
	result, err := e.next.Encrypt(ctx, input)

	e.record(ctx, "encrypt", start, err)
	if err == nil && result != nil {
		e.metrics.RecordPayload(ctx, "envelope", "encrypt", int64(len(input.Plaintext)), int64(len(result.Ciphertext)))
	}
	return result, err
}

// EncryptFile records metrics for file encryption.
func (e *encryptUseCaseWithMetrics) EncryptFile(
	ctx context.Context,
	input *EncryptFileInput,
) (*EncryptFileOutput, error) {
	start := time.Now()
	output, err := e.next.EncryptFile(ctx, input)

	e.record(ctx, "encrypt_file", start, err)
	if err == nil && output != nil && output.Result != nil {
		e.metrics.RecordPayload(
			ctx, "envelope", "encrypt_file",
			plaintextSize(output.Result), int64(len(output.Result.Ciphertext)),
		)
	}
	return output, err
}

func (e *encryptUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", operation, status)
	e.metrics.RecordDuration(ctx, "envelope", operation, time.Since(start), status)
}

// plaintextSize reads the plaintext length from the result metadata, -1 when absent.
func plaintextSize(result *envelopeDomain.EncryptionResult) int64 {
	v, ok := result.Metadata.Get(envelopeDomain.HeaderContentLength)
	if !ok {
		return -1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return -1
	}
	return n
}
