package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics records envelope activity: operation outcomes and latency per
// domain ("envelope", "kms"), and the payload bytes that went through the cipher.
type BusinessMetrics interface {
	// RecordOperation counts one operation ("encrypt", "encrypt_file",
	// "generate_data_key") that ended with status ("success", "error").
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration observes how long the operation took, in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordPayload adds the plaintext consumed and the ciphertext produced by a
	// successful operation. Negative sizes are ignored.
	RecordPayload(ctx context.Context, domain, operation string, plaintextBytes, ciphertextBytes int64)
}

// Payload directions, used as the "direction" label of the payload counter.
const (
	DirectionPlaintext  = "plaintext"
	DirectionCiphertext = "ciphertext"
)

// durationBuckets covers a local keeper (sub-millisecond) up to a slow KMS round trip.
var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

type businessMetrics struct {
	operations metric.Int64Counter
	durations  metric.Float64Histogram
	payload    metric.Int64Counter
}

// NewBusinessMetrics registers the envelope instruments on meterProvider. Every
// instrument name is prefixed with namespace, e.g. "envelope_operations_total".
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)
	name := func(suffix string) string { return namespace + "_" + suffix }

	operations, err := meter.Int64Counter(
		name("operations_total"),
		metric.WithDescription("Envelope operations by domain, operation and status"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		name("operation_duration_seconds"),
		metric.WithDescription("Latency of envelope operations"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	payload, err := meter.Int64Counter(
		name("payload_bytes_total"),
		metric.WithDescription("Plaintext read and ciphertext written by envelope operations"),
		metric.WithUnit("{byte}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payload counter: %w", err)
	}

	return &businessMetrics{operations: operations, durations: durations, payload: payload}, nil
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operations.Add(ctx, 1, metric.WithAttributes(operationAttrs(domain, operation, status)...))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durations.Record(ctx, duration.Seconds(), metric.WithAttributes(operationAttrs(domain, operation, status)...))
}

func (b *businessMetrics) RecordPayload(
	ctx context.Context,
	domain, operation string,
	plaintextBytes, ciphertextBytes int64,
) {
	b.addPayload(ctx, domain, operation, DirectionPlaintext, plaintextBytes)
	b.addPayload(ctx, domain, operation, DirectionCiphertext, ciphertextBytes)
}

func (b *businessMetrics) addPayload(ctx context.Context, domain, operation, direction string, n int64) {
	if n < 0 {
		return
	}
	b.payload.Add(ctx, n, metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("direction", direction),
	))
}

func operationAttrs(domain, operation, status string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	}
}

// NoOpBusinessMetrics discards everything; the container uses it when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(context.Context, string, string, string) {}

func (n *NoOpBusinessMetrics) RecordDuration(context.Context, string, string, time.Duration, string) {}

func (n *NoOpBusinessMetrics) RecordPayload(context.Context, string, string, int64, int64) {}
