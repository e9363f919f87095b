// Package integration provides end-to-end tests of file envelope encryption through
// the application container: a real key provider, the AES-GCM cipher and an object sink.
package integration

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/localsecrets"

	"github.com/allisson/kms-envelope/internal/app"
	"github.com/allisson/kms-envelope/internal/config"
	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
	envelopeUsecase "github.com/allisson/kms-envelope/internal/envelope/usecase"
	"github.com/allisson/kms-envelope/internal/testutil"
)

// integrationTestContext holds the container and scratch space for one test.
type integrationTestContext struct {
	container *app.Container
	dir       string
	logs      *bytes.Buffer
}

func setupIntegrationTest(t *testing.T, cfg *config.Config, opts ...app.Option) *integrationTestContext {
	t.Helper()
	require.NoError(t, cfg.Validate())

	logs := &bytes.Buffer{}
	opts = append(opts, app.WithLogOutput(logs))
	container := app.NewContainer(cfg, opts...)
	t.Cleanup(func() {
		require.NoError(t, container.Shutdown(context.Background()))
	})

	return &integrationTestContext{container: container, dir: t.TempDir(), logs: logs}
}

func (ic *integrationTestContext) writePlaintext(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(ic.dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func baseConfig() *config.Config {
	return &config.Config{
		LogLevel:         "debug",
		KMSProvider:      config.ProviderAWSKMS,
		KMSTimeout:       10 * time.Second,
		OutputSuffix:     ".enc",
		MetricsNamespace: "envelope",
	}
}

// openCiphertext decrypts an AES-GCM ciphertext with the nonce from metadata.
func openCiphertext(t *testing.T, key, ciphertext []byte, metadata envelopeDomain.Metadata) []byte {
	t.Helper()
	ivB64, ok := metadata.Get(envelopeDomain.HeaderIV)
	require.True(t, ok)
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	require.NoError(t, err)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	require.NoError(t, err)
	return plaintext
}

func wrappedKey(t *testing.T, metadata envelopeDomain.Metadata) []byte {
	t.Helper()
	v, ok := metadata.Get(envelopeDomain.HeaderKeyV2)
	require.True(t, ok)
	raw, err := base64.StdEncoding.DecodeString(v)
	require.NoError(t, err)
	return raw
}

// TestIntegration_AWSKMS_CompleteFlow encrypts a file with a LocalStack KMS key and
// decrypts it with KMS Decrypt under the encryption context read back from matdesc.
func TestIntegration_AWSKMS_CompleteFlow(t *testing.T) {
	// Skip if short mode (integration tests can be slow)
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := testutil.SetupLocalStackKMS(t)
	keyARN := testutil.CreateTestKey(t, client)

	ic := setupIntegrationTest(t, baseConfig(), app.WithKMSClient(client))
	useCase, err := ic.container.EncryptUseCase()
	require.NoError(t, err)

	plaintext := []byte("quarterly numbers, do not share")
	path := ic.writePlaintext(t, "report.txt", plaintext)
	encCtx := envelopeDomain.EncryptionContext{"team": "finance", "kms_cmk_id": keyARN}

	var output *envelopeUsecase.EncryptFileOutput

	t.Run("01_EncryptFile", func(t *testing.T) {
		output, err = useCase.EncryptFile(context.Background(), &envelopeUsecase.EncryptFileInput{
			Path:        path,
			MasterKeyID: keyARN,
			Context:     encCtx,
		})
		require.NoError(t, err)
		assert.Equal(t, path+".enc", output.ObjectKey)
		assert.Equal(t, envelopeDomain.HeaderOrder, output.Result.Metadata.Keys())
	})

	t.Run("02_DecryptWithKMS", func(t *testing.T) {
		require.NotNil(t, output)
		matDesc, err := output.Result.Metadata.MatDesc()
		require.NoError(t, err)
		assert.Equal(t, encCtx, matDesc)

		decrypted, err := client.Decrypt(context.Background(), &kms.DecryptInput{
			CiphertextBlob:    wrappedKey(t, output.Result.Metadata),
			EncryptionContext: matDesc,
		})
		require.NoError(t, err)

		ciphertext, err := os.ReadFile(output.ObjectKey)
		require.NoError(t, err)
		assert.Equal(t, plaintext, openCiphertext(t, decrypted.Plaintext, ciphertext, output.Result.Metadata))
	})

	t.Run("03_WrongContextRejected", func(t *testing.T) {
		require.NotNil(t, output)
		_, err := client.Decrypt(context.Background(), &kms.DecryptInput{
			CiphertextBlob:    wrappedKey(t, output.Result.Metadata),
			EncryptionContext: map[string]string{"team": "marketing"},
		})
		require.Error(t, err)
	})

	t.Run("04_DisabledKeyWritesNothing", func(t *testing.T) {
		disabledARN := testutil.CreateTestKey(t, client)
		testutil.DisableTestKey(t, client, disabledARN)

		other := ic.writePlaintext(t, "other.txt", []byte("x"))
		_, err := useCase.EncryptFile(context.Background(), &envelopeUsecase.EncryptFileInput{
			Path:        other,
			MasterKeyID: disabledARN,
			Context:     envelopeDomain.DefaultEncryptionContext(disabledARN),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, envelopeDomain.ErrUnauthorized))
		assert.NoFileExists(t, other+".enc")
	})

	t.Run("05_UnknownKeyIsNotFound", func(t *testing.T) {
		missing := "arn:aws:kms:" + testutil.GetKMSTestRegion() + ":000000000000:key/00000000-0000-0000-0000-000000000000"
		_, err := useCase.Encrypt(context.Background(), &envelopeUsecase.EncryptInput{
			Plaintext:   []byte("x"),
			MasterKeyID: missing,
			Context:     envelopeDomain.DefaultEncryptionContext(missing),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, envelopeDomain.ErrKeyNotFound))
	})

	assert.NotContains(t, ic.logs.String(), base64.StdEncoding.EncodeToString(plaintext))
}

// TestIntegration_Keeper_BlobSink encrypts under a local keeper and stores the
// ciphertext, with its metadata, in a file:// bucket.
func TestIntegration_Keeper_BlobSink(t *testing.T) {
	// Skip if short mode (integration tests can be slow)
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	bucketDir := t.TempDir()
	keyURL := testutil.NewLocalKeeperURL(t)

	cfg := baseConfig()
	cfg.KMSProvider = config.ProviderKeeper
	cfg.OutputBucketURL = "file://" + filepath.ToSlash(bucketDir)
	cfg.MetricsEnabled = true
	cfg.MetricsTextfile = filepath.Join(t.TempDir(), "envelope.prom")

	ic := setupIntegrationTest(t, cfg)
	useCase, err := ic.container.EncryptUseCase()
	require.NoError(t, err)

	plaintext := bytes.Repeat([]byte("0123456789"), 1000)
	path := ic.writePlaintext(t, "big.bin", plaintext)

	output, err := useCase.EncryptFile(ctx, &envelopeUsecase.EncryptFileInput{
		Path:        path,
		MasterKeyID: keyURL,
		Context:     envelopeDomain.DefaultEncryptionContext(keyURL),
	})
	require.NoError(t, err)
	assert.Equal(t, "big.bin.enc", output.ObjectKey)

	bucket, err := blob.OpenBucket(ctx, cfg.OutputBucketURL)
	require.NoError(t, err)
	defer func() {
		_ = bucket.Close()
	}()

	attrs, err := bucket.Attributes(ctx, output.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, output.Result.Metadata.Map(), attrs.Metadata)

	ciphertext, err := bucket.ReadAll(ctx, output.ObjectKey)
	require.NoError(t, err)
	assert.Len(t, ciphertext, len(plaintext)+16)

	keeper, err := secrets.OpenKeeper(ctx, keyURL)
	require.NoError(t, err)
	defer func() {
		_ = keeper.Close()
	}()

	dataKey, err := keeper.Decrypt(ctx, wrappedKey(t, output.Result.Metadata))
	require.NoError(t, err)
	assert.Equal(t, plaintext, openCiphertext(t, dataKey, ciphertext, output.Result.Metadata))
	assert.NotContains(t, ic.logs.String(), keyURL)
}
