package domain

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/awnumar/memguard"
)

// DataKey is a single-use data encryption key returned by a key provider.
//
// The plaintext lives in a memguard LockedBuffer (mlocked, guard pages, wiped on
// Destroy) and is exposed only through Plaintext until Destroy is called. The
// wrapped form is opaque KMS output kept only long enough to be written into
// the object metadata. A DataKey belongs to one encryption call and is never
// shared between goroutines.
type DataKey struct {
	CiphertextBlob []byte // plaintext key wrapped by the master key

	mu        sync.Mutex
	plaintext *memguard.LockedBuffer
}

// NewDataKey moves plaintext into guarded memory and wipes the caller's slice.
// The slice is wiped on error as well.
func NewDataKey(plaintext, ciphertextBlob []byte, spec KeySpec) (*DataKey, error) {
	if want := spec.Size(); want == 0 || len(plaintext) != want {
		n := len(plaintext)
		memguard.WipeBytes(plaintext)
		return nil, fmt.Errorf("%w: want %d bytes for %s, got %d", ErrInvalidKeySize, spec.Size(), spec, n)
	}
	if len(ciphertextBlob) == 0 {
		memguard.WipeBytes(plaintext)
		return nil, ErrEmptyWrappedKey
	}

	blob := make([]byte, len(ciphertextBlob))
	copy(blob, ciphertextBlob)

	return &DataKey{
		CiphertextBlob: blob,
		plaintext:      memguard.NewBufferFromBytes(plaintext),
	}, nil
}

// Plaintext returns the key bytes, or ErrDataKeyDestroyed once Destroy has run.
// The returned slice is read-only guarded memory and must not be retained.
func (k *DataKey) Plaintext() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.plaintext == nil || !k.plaintext.IsAlive() {
		return nil, ErrDataKeyDestroyed
	}
	return k.plaintext.Bytes(), nil
}

// Destroy wipes and releases the plaintext. It is safe to call more than once.
func (k *DataKey) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.plaintext != nil {
		k.plaintext.Destroy()
	}
}

// Destroyed reports whether the plaintext has been wiped.
func (k *DataKey) Destroyed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.plaintext == nil || !k.plaintext.IsAlive()
}

// String never prints key material.
func (k *DataKey) String() string {
	return fmt.Sprintf("DataKey{wrapped: %d bytes, plaintext: [REDACTED]}", len(k.CiphertextBlob))
}

// LogValue keeps key material out of structured logs.
func (k *DataKey) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("wrapped_key_bytes", len(k.CiphertextBlob)),
		slog.Bool("destroyed", k.Destroyed()),
	)
}
