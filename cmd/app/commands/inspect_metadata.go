package commands

import (
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/jellydator/validation"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
	appValidation "github.com/allisson/kms-envelope/internal/validation"
)

type metadataField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type inspectOutput struct {
	Fields           []metadataField                  `json:"fields"`
	MatDesc          envelopeDomain.EncryptionContext `json:"matdesc"`
	IVBytes          int                              `json:"iv_bytes"`
	WrappedKeyBytes  int                              `json:"wrapped_key_bytes"`
	PlaintextBytes   int64                            `json:"plaintext_bytes"`
	CiphertextBytes  int64                            `json:"ciphertext_bytes"`
	TagLengthInBits  int                              `json:"tag_length_bits"`
	ContentAlgorithm string                           `json:"content_algorithm"`
}

// envelopeFields are the metadata values checked before decoding.
type envelopeFields struct {
	IV            string `json:"x-amz-iv"`
	WrappedKey    string `json:"x-amz-key-v2"`
	TagLength     string `json:"x-amz-tag-len"`
	ContentLength string `json:"x-amz-unencrypted-content-length"`
}

var digits = regexp.MustCompile(`^[0-9]+$`)

func (f *envelopeFields) validate(suite envelopeDomain.CipherSuite) error {
	return validation.ValidateStruct(f,
		validation.Field(&f.IV, validation.Required, appValidation.Base64OfLength(suite.NonceSize)),
		validation.Field(&f.WrappedKey, validation.Required, appValidation.Base64),
		validation.Field(&f.TagLength, validation.Required, validation.Match(digits)),
		validation.Field(&f.ContentLength, validation.Required, validation.Match(digits)),
	)
}

// RunInspectMetadata parses a metadata line produced by the encrypt command and
// writes its fields, decoded, as JSON to out. The line must carry every x-amz-* field.
func RunInspectMetadata(out io.Writer, line string) error {
	metadata, err := envelopeDomain.ParseMetadata(line)
	if err != nil {
		return err
	}
	if missing := metadata.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", envelopeDomain.ErrInvalidMetadata, strings.Join(missing, ", "))
	}

	fields := envelopeFields{
		IV:            mustGet(metadata, envelopeDomain.HeaderIV),
		WrappedKey:    mustGet(metadata, envelopeDomain.HeaderKeyV2),
		TagLength:     mustGet(metadata, envelopeDomain.HeaderTagLength),
		ContentLength: mustGet(metadata, envelopeDomain.HeaderContentLength),
	}
	if err := fields.validate(envelopeDomain.DefaultCipherSuite()); err != nil {
		return fmt.Errorf("%w: %v", envelopeDomain.ErrInvalidMetadata, err)
	}

	matDesc, err := metadata.MatDesc()
	if err != nil {
		return err
	}

	// Base64 already validated.
	iv, _ := base64.StdEncoding.DecodeString(fields.IV)
	wrappedKey, _ := base64.StdEncoding.DecodeString(fields.WrappedKey)

	tagBits, err := strconv.ParseInt(fields.TagLength, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", envelopeDomain.ErrInvalidMetadata, envelopeDomain.HeaderTagLength, err)
	}
	plaintextBytes, err := strconv.ParseInt(fields.ContentLength, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", envelopeDomain.ErrInvalidMetadata, envelopeDomain.HeaderContentLength, err)
	}
	tagBytes := tagBits / 8
	if plaintextBytes > math.MaxInt64-tagBytes {
		return fmt.Errorf("%w: %s: %d exceeds the ciphertext size limit",
			envelopeDomain.ErrInvalidMetadata, envelopeDomain.HeaderContentLength, plaintextBytes)
	}

	result := inspectOutput{
		MatDesc:          matDesc,
		IVBytes:          len(iv),
		WrappedKeyBytes:  len(wrappedKey),
		PlaintextBytes:   plaintextBytes,
		CiphertextBytes:  plaintextBytes + tagBytes,
		TagLengthInBits:  int(tagBits),
		ContentAlgorithm: mustGet(metadata, envelopeDomain.HeaderContentAlgorithm),
	}
	for _, e := range metadata.Entries() {
		result.Fields = append(result.Fields, metadataField{Key: e.Key, Value: e.Value})
	}

	return writeJSON(out, result)
}

// mustGet reads a field already checked by Metadata.Missing.
func mustGet(metadata envelopeDomain.Metadata, key string) string {
	v, _ := metadata.Get(key)
	return v
}
