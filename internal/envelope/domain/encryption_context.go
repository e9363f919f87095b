package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// MatDescKeyID is the context key the S3 encryption client uses for the master key
// identifier when the caller provides no context of its own.
const MatDescKeyID = "kms_cmk_id"

// EncryptionContext is the key-value data bound to the KMS wrap of a data key and
// echoed into the x-amz-matdesc metadata field. The exact same mapping must be
// presented to KMS to unwrap the key later, so components never modify it.
type EncryptionContext map[string]string

// DefaultEncryptionContext returns {"kms_cmk_id": masterKeyID}. Key material in a
// base64key:// keeper URL is redacted.
func DefaultEncryptionContext(masterKeyID string) EncryptionContext {
	return EncryptionContext{MatDescKeyID: RedactKeyID(masterKeyID)}
}

// Keys returns the context keys in lexicographic order.
func (c EncryptionContext) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}

// Clone returns an independent copy. A nil context clones to an empty one.
func (c EncryptionContext) Clone() EncryptionContext {
	out := make(EncryptionContext, len(c))
	maps.Copy(out, c)
	return out
}

// Equal reports whether both contexts hold the same pairs.
func (c EncryptionContext) Equal(other EncryptionContext) bool {
	return maps.Equal(c, other)
}

// Validate checks that every key is non-empty and that keys and values are valid UTF-8.
// An empty context is valid.
func (c EncryptionContext) Validate() error {
	for _, k := range c.Keys() {
		if k == "" {
			return fmt.Errorf("%w: empty key", ErrInvalidContext)
		}
		if !utf8.ValidString(k) {
			return fmt.Errorf("%w: key is not valid UTF-8", ErrInvalidContext)
		}
		if !utf8.ValidString(c[k]) {
			return fmt.Errorf("%w: value for %q is not valid UTF-8", ErrInvalidContext, k)
		}
	}
	return nil
}

// MarshalMatDesc serializes the context as compact JSON with sorted keys. DEL and
// runes outside ASCII are written as \u escapes so the result is safe in an HTTP
// header; <, > and & are left as is.
func (c EncryptionContext) MarshalMatDesc() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]string(c.Clone())); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidContext, err)
	}
	return escapeNonASCII(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// ParseMatDesc decodes an x-amz-matdesc value.
func ParseMatDesc(s string) (EncryptionContext, error) {
	ctx := EncryptionContext{}
	if err := json.Unmarshal([]byte(s), &ctx); err != nil {
		return nil, fmt.Errorf("%w: matdesc: %v", ErrInvalidMetadata, err)
	}
	return ctx, nil
}

// escapeNonASCII rewrites DEL and every non-ASCII rune of a JSON document as
// \uXXXX, using surrogate pairs above the BMP. Such runes only occur inside JSON
// strings, where the escape is equivalent.
func escapeNonASCII(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range string(raw) {
		if r < 0x7f {
			b.WriteRune(r)
			continue
		}
		for _, u := range utf16.Encode([]rune{r}) {
			fmt.Fprintf(&b, `\u%04x`, u)
		}
	}
	return b.String()
}
