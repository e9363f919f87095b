package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
)

func TestBlobObjectRepository_ObjectKey(t *testing.T) {
	repo := NewBlobObjectRepository(memblob.OpenBucket(nil), "")
	defer func() {
		assert.NoError(t, repo.Close())
	}()

	assert.Equal(t, "report.csv.enc", repo.ObjectKey("/var/data/report.csv"))
	assert.Equal(t, "report.csv.enc", repo.ObjectKey("report.csv"))
}

func TestBlobObjectRepository_Put(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_MemBucket", func(t *testing.T) {
		repo := NewBlobObjectRepository(memblob.OpenBucket(nil), "")
		defer func() {
			assert.NoError(t, repo.Close())
		}()
		ciphertext := []byte("ciphertext-with-tag")
		metadata := testMetadata()

		require.NoError(t, repo.Put(ctx, "report.csv.enc", ciphertext, metadata))

		data, err := repo.Bucket().ReadAll(ctx, "report.csv.enc")
		require.NoError(t, err)
		assert.Equal(t, ciphertext, data)

		attrs, err := repo.Bucket().Attributes(ctx, "report.csv.enc")
		require.NoError(t, err)
		assert.Equal(t, "application/octet-stream", attrs.ContentType)
		assert.Equal(t, metadata.Map(), attrs.Metadata)
	})

	t.Run("Success_FileBucketURL", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := OpenBlobObjectRepository(ctx, "file://"+dir, ".cse")
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, repo.Close())
		}()

		key := repo.ObjectKey("/tmp/report.csv")
		require.NoError(t, repo.Put(ctx, key, []byte("data"), testMetadata()))

		data, err := repo.Bucket().ReadAll(ctx, "report.csv.cse")
		require.NoError(t, err)
		assert.Equal(t, []byte("data"), data)

		attrs, err := repo.Bucket().Attributes(ctx, key)
		require.NoError(t, err)
		got, ok := attrs.Metadata[envelopeDomain.HeaderMatDesc]
		assert.True(t, ok)
		assert.Equal(t, `{"kms_cmk_id":"alias/vendor-files"}`, got)
	})

	t.Run("Error_CanceledContextCommitsNothing", func(t *testing.T) {
		repo := NewBlobObjectRepository(memblob.OpenBucket(nil), "")
		defer func() {
			assert.NoError(t, repo.Close())
		}()
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		err := repo.Put(canceled, "report.csv.enc", []byte("data"), testMetadata())
		assert.ErrorIs(t, err, envelopeDomain.ErrIO)

		exists, err := repo.Bucket().Exists(ctx, "report.csv.enc")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestOpenBlobObjectRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_MemURL", func(t *testing.T) {
		repo, err := OpenBlobObjectRepository(ctx, "mem://", "")
		require.NoError(t, err)
		assert.NoError(t, repo.Close())
	})

	t.Run("Error_UnknownScheme", func(t *testing.T) {
		repo, err := OpenBlobObjectRepository(ctx, "ftp://bucket", "")
		assert.Nil(t, repo)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open bucket")
	})
}
