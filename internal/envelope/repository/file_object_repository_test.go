package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
)

func testMetadata() envelopeDomain.Metadata {
	return envelopeDomain.NewMetadata(
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderContentAlgorithm, Value: "AES/GCM/NoPadding"},
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderWrapAlgorithm, Value: "kms"},
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderTagLength, Value: "128"},
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderContentLength, Value: "4"},
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderIV, Value: "AAECAwQFBgcICQoL"},
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderMatDesc, Value: `{"kms_cmk_id":"alias/vendor-files"}`},
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderKeyV2, Value: "d3JhcHBlZA=="},
	)
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFileObjectRepository_ObjectKey(t *testing.T) {
	t.Run("default suffix", func(t *testing.T) {
		repo := NewFileObjectRepository("")
		assert.Equal(t, "/data/report.csv.enc", repo.ObjectKey("/data/report.csv"))
	})

	t.Run("custom suffix", func(t *testing.T) {
		repo := NewFileObjectRepository(".cse")
		assert.Equal(t, "report.csv.cse", repo.ObjectKey("report.csv"))
	})
}

func TestFileObjectRepository_Put(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		dir := t.TempDir()
		repo := NewFileObjectRepository("")
		key := repo.ObjectKey(filepath.Join(dir, "report.csv"))
		ciphertext := []byte("ciphertext-with-tag")

		require.NoError(t, repo.Put(ctx, key, ciphertext, testMetadata()))

		data, err := os.ReadFile(key)
		require.NoError(t, err)
		assert.Equal(t, ciphertext, data)

		info, err := os.Stat(key)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
		assert.Equal(t, []string{"report.csv.enc"}, listDir(t, dir))
	})

	t.Run("Success_ReplacesExistingFile", func(t *testing.T) {
		dir := t.TempDir()
		repo := NewFileObjectRepository("")
		key := filepath.Join(dir, "report.csv.enc")
		require.NoError(t, os.WriteFile(key, []byte("old"), 0o600))

		require.NoError(t, repo.Put(ctx, key, []byte("new"), testMetadata()))

		data, err := os.ReadFile(key)
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), data)
	})

	t.Run("Success_EmptyCiphertext", func(t *testing.T) {
		dir := t.TempDir()
		repo := NewFileObjectRepository("")
		key := filepath.Join(dir, "empty.enc")

		require.NoError(t, repo.Put(ctx, key, []byte{}, testMetadata()))

		info, err := os.Stat(key)
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	})

	t.Run("Error_MissingDirectory", func(t *testing.T) {
		dir := t.TempDir()
		repo := NewFileObjectRepository("")
		key := filepath.Join(dir, "missing", "report.csv.enc")

		err := repo.Put(ctx, key, []byte("data"), testMetadata())
		assert.ErrorIs(t, err, envelopeDomain.ErrIO)

		var cipherErr *envelopeDomain.CipherError
		assert.ErrorAs(t, err, &cipherErr)
		assert.Empty(t, listDir(t, dir))
	})

	t.Run("Error_DestinationIsDirectory", func(t *testing.T) {
		dir := t.TempDir()
		repo := NewFileObjectRepository("")
		key := filepath.Join(dir, "taken.enc")
		require.NoError(t, os.Mkdir(key, 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(key, "child"), []byte("x"), 0o600))

		err := repo.Put(ctx, key, []byte("data"), testMetadata())
		assert.ErrorIs(t, err, envelopeDomain.ErrIO)
		assert.Equal(t, []string{"taken.enc"}, listDir(t, dir), "temporary file must be removed")
	})

	t.Run("Error_CanceledContext", func(t *testing.T) {
		dir := t.TempDir()
		repo := NewFileObjectRepository("")
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		err := repo.Put(canceled, filepath.Join(dir, "report.csv.enc"), []byte("data"), testMetadata())
		assert.ErrorIs(t, err, envelopeDomain.ErrIO)
		assert.Empty(t, listDir(t, dir))
	})
}
