// Package repository stores envelope-encrypted objects: on the local filesystem next
// to the plaintext, or in any gocloud.dev/blob bucket.
package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
)

// DefaultSuffix is appended to the plaintext path to name the ciphertext.
const DefaultSuffix = ".enc"

// FileObjectRepository writes ciphertext to local files.
//
// Writes are atomic: data goes to a temporary file in the destination directory,
// is synced, and is renamed into place. A failed write leaves nothing behind.
// The metadata is not stored; it is returned to the caller for the upload step.
type FileObjectRepository struct {
	suffix string
}

// NewFileObjectRepository creates a file repository. An empty suffix means DefaultSuffix.
func NewFileObjectRepository(suffix string) *FileObjectRepository {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return &FileObjectRepository{suffix: suffix}
}

// ObjectKey returns sourcePath with the suffix appended.
func (r *FileObjectRepository) ObjectKey(sourcePath string) string {
	return sourcePath + r.suffix
}

// Put writes ciphertext to the file named key with mode 0600, replacing any
// existing file.
func (r *FileObjectRepository) Put(
	ctx context.Context,
	key string,
	ciphertext []byte,
	metadata envelopeDomain.Metadata,
) (err error) {
	if err := ctx.Err(); err != nil {
		return ioError("write", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(key), "."+filepath.Base(key)+".tmp-*")
	if err != nil {
		return ioError("write", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(ciphertext); err != nil {
		return ioError("write", err)
	}
	if err = tmp.Sync(); err != nil {
		return ioError("sync", err)
	}
	if err = tmp.Close(); err != nil {
		return ioError("close", err)
	}
	if err = os.Rename(tmpName, key); err != nil {
		return ioError("rename", err)
	}
	return nil
}

func ioError(op string, err error) error {
	return &envelopeDomain.CipherError{Op: op, Err: fmt.Errorf("%w: %v", envelopeDomain.ErrIO, err)}
}
