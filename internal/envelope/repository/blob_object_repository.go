package repository

import (
	"context"
	"fmt"
	"path/filepath"

	"gocloud.dev/blob"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"

	// Register blob drivers
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

const ciphertextContentType = "application/octet-stream"

// BlobObjectRepository uploads ciphertext to a gocloud.dev/blob bucket and stores
// the envelope metadata as object user metadata, as `aws s3 cp --metadata` does.
type BlobObjectRepository struct {
	bucket *blob.Bucket
	suffix string
}

// NewBlobObjectRepository wraps an open bucket. An empty suffix means DefaultSuffix.
func NewBlobObjectRepository(bucket *blob.Bucket, suffix string) *BlobObjectRepository {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return &BlobObjectRepository{bucket: bucket, suffix: suffix}
}

// OpenBlobObjectRepository opens bucketURL (s3://, gs://, azblob://, file://, mem://).
// A "prefix" query parameter scopes every key under that prefix.
func OpenBlobObjectRepository(ctx context.Context, bucketURL, suffix string) (*BlobObjectRepository, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}
	return NewBlobObjectRepository(bucket, suffix), nil
}

// ObjectKey returns the base name of sourcePath with the suffix appended.
func (r *BlobObjectRepository) ObjectKey(sourcePath string) string {
	return filepath.Base(sourcePath) + r.suffix
}

// Put uploads ciphertext under key. On failure the write is aborted and no
// object is committed.
func (r *BlobObjectRepository) Put(
	ctx context.Context,
	key string,
	ciphertext []byte,
	metadata envelopeDomain.Metadata,
) error {
	if err := ctx.Err(); err != nil {
		return ioError("upload", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := r.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: ciphertextContentType,
		Metadata:    metadata.Map(),
	})
	if err != nil {
		return ioError("upload", err)
	}

	if _, err := w.Write(ciphertext); err != nil {
		cancel()
		_ = w.Close()
		return ioError("upload", err)
	}
	if err := w.Close(); err != nil {
		return ioError("upload", err)
	}
	return nil
}

// Bucket exposes the underlying bucket for reads.
func (r *BlobObjectRepository) Bucket() *blob.Bucket {
	return r.bucket
}

// Close releases the bucket.
func (r *BlobObjectRepository) Close() error {
	return r.bucket.Close()
}
