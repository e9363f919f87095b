// Package testutil provides testing utilities for KMS integration tests.
//
// Environment Variables:
//
// The LocalStack endpoint can be customized via environment variables:
//   - TEST_KMS_ENDPOINT: KMS endpoint URL (default: http://localhost:4566)
//   - TEST_KMS_REGION: AWS region (default: us-east-1)
//
// KMS Setup:
//
//	client := testutil.SetupLocalStackKMS(t)
//	keyARN := testutil.CreateTestKey(t, client)
//
// Local keeper (no network):
//
//	keyURL := testutil.NewLocalKeeperURL(t)
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/stretchr/testify/require"
)

const (
	defaultKMSTestEndpoint = "http://localhost:4566"
	defaultKMSTestRegion   = "us-east-1"
)

// GetKMSTestEndpoint returns the KMS test endpoint, checking environment variable first.
func GetKMSTestEndpoint() string {
	if endpoint := os.Getenv("TEST_KMS_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return defaultKMSTestEndpoint
}

// GetKMSTestRegion returns the KMS test region, checking environment variable first.
func GetKMSTestRegion() string {
	if region := os.Getenv("TEST_KMS_REGION"); region != "" {
		return region
	}
	return defaultKMSTestRegion
}

// NewLocalKeeperURL returns a base64key:// keeper URL holding a random 32-byte key.
func NewLocalKeeperURL(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return "base64key://" + base64.URLEncoding.EncodeToString(key)
}

func newLocalStackClient() *kms.Client {
	//nolint:gosec // LocalStack accepts any static credentials
	return kms.New(kms.Options{
		Region:       GetKMSTestRegion(),
		BaseEndpoint: aws.String(GetKMSTestEndpoint()),
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
		Retryer:      aws.NopRetryer{},
	})
}

// SkipIfNoLocalStack skips the test if the LocalStack KMS endpoint is not available.
// Useful for running tests in environments without network access.
func SkipIfNoLocalStack(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := newLocalStackClient().ListKeys(ctx, &kms.ListKeysInput{Limit: aws.Int32(1)}); err != nil {
		t.Skipf("LocalStack KMS not available: %v", err)
	}
}

// SetupLocalStackKMS returns a KMS client for the LocalStack endpoint, skipping the
// test when it is unreachable.
func SetupLocalStackKMS(t *testing.T) *kms.Client {
	t.Helper()
	SkipIfNoLocalStack(t)
	return newLocalStackClient()
}

// CreateTestKey creates a symmetric encryption key and schedules its deletion when
// the test ends. Returns the key ARN.
func CreateTestKey(t *testing.T, client *kms.Client) string {
	t.Helper()

	output, err := client.CreateKey(context.Background(), &kms.CreateKeyInput{
		KeySpec:     kmstypes.KeySpecSymmetricDefault,
		KeyUsage:    kmstypes.KeyUsageTypeEncryptDecrypt,
		Description: aws.String("kms-envelope test key " + t.Name()),
	})
	require.NoError(t, err, "failed to create test key")

	keyID := aws.ToString(output.KeyMetadata.KeyId)
	t.Cleanup(func() {
		_, _ = client.ScheduleKeyDeletion(context.Background(), &kms.ScheduleKeyDeletionInput{
			KeyId:               aws.String(keyID),
			PendingWindowInDays: aws.Int32(7),
		})
	})

	return aws.ToString(output.KeyMetadata.Arn)
}

// DisableTestKey disables the key so GenerateDataKey fails with DisabledException.
func DisableTestKey(t *testing.T, client *kms.Client, keyARN string) {
	t.Helper()
	_, err := client.DisableKey(context.Background(), &kms.DisableKeyInput{KeyId: aws.String(keyARN)})
	require.NoError(t, err, "failed to disable test key")
}
