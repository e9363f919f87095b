package domain

import (
	"fmt"
	"strings"
)

// MetadataEntry is one key=value pair of object metadata.
type MetadataEntry struct {
	Key   string
	Value string
}

// Metadata is the ordered, immutable set of fields that describes an envelope
// encryption to a downstream S3 client-side-encryption reader.
type Metadata struct {
	entries []MetadataEntry
}

// NewMetadata builds Metadata from entries, keeping their order.
func NewMetadata(entries ...MetadataEntry) Metadata {
	out := make([]MetadataEntry, len(entries))
	copy(out, entries)
	return Metadata{entries: out}
}

// Entries returns a copy of the ordered entries.
func (m Metadata) Entries() []MetadataEntry {
	out := make([]MetadataEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of fields.
func (m Metadata) Len() int {
	return len(m.entries)
}

// Get returns the value stored under key.
func (m Metadata) Get(key string) (string, bool) {
	for _, e := range m.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Keys returns the field names in order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Map returns the fields as a map, e.g. for object storage user metadata.
func (m Metadata) Map() map[string]string {
	out := make(map[string]string, len(m.entries))
	for _, e := range m.entries {
		out[e.Key] = e.Value
	}
	return out
}

// Missing returns the envelope fields absent from m, in HeaderOrder.
func (m Metadata) Missing() []string {
	var missing []string
	for _, h := range HeaderOrder {
		if _, ok := m.Get(h); !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// MatDesc decodes the x-amz-matdesc field.
func (m Metadata) MatDesc() (EncryptionContext, error) {
	v, ok := m.Get(HeaderMatDesc)
	if !ok {
		return nil, fmt.Errorf("%w: %s missing", ErrInvalidMetadata, HeaderMatDesc)
	}
	return ParseMatDesc(v)
}

// String renders the single-line form accepted by `aws s3 cp --metadata`:
// key=value pairs joined by commas, with commas inside values escaped as `\,`.
func (m Metadata) String() string {
	pairs := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		pairs = append(pairs, e.Key+"="+strings.ReplaceAll(e.Value, ",", `\,`))
	}
	return strings.Join(pairs, ",")
}

// ParseMetadata parses the output of Metadata.String.
func ParseMetadata(line string) (Metadata, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Metadata{}, fmt.Errorf("%w: empty line", ErrInvalidMetadata)
	}

	var (
		entries []MetadataEntry
		field   strings.Builder
	)
	flush := func() error {
		key, value, ok := strings.Cut(field.String(), "=")
		if !ok || key == "" {
			return fmt.Errorf("%w: malformed pair %q", ErrInvalidMetadata, field.String())
		}
		entries = append(entries, MetadataEntry{Key: key, Value: value})
		field.Reset()
		return nil
	}

	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == ',':
			field.WriteByte(',')
			i++
		case line[i] == ',':
			if err := flush(); err != nil {
				return Metadata{}, err
			}
		default:
			field.WriteByte(line[i])
		}
	}
	if err := flush(); err != nil {
		return Metadata{}, err
	}

	return Metadata{entries: entries}, nil
}

// EncryptionResult is the output of one envelope encryption: ciphertext with the
// authentication tag appended, and the metadata that describes it.
type EncryptionResult struct {
	Ciphertext  []byte
	Metadata    Metadata
	MasterKeyID string
}
