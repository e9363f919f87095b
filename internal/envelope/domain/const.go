// Package domain defines the envelope encryption model: the encryption context bound to
// the KMS wrap, the short-lived data key, the cipher parameters and the object metadata
// that lets an S3 client-side-encryption compatible reader recover the plaintext.
package domain

// KeySpec identifies the size of the data key requested from the key provider.
type KeySpec string

// AES256 requests a 256-bit data key. It is the only key spec the tool produces.
const AES256 KeySpec = "AES_256"

// Size returns the key length in bytes, or 0 for an unknown spec.
func (k KeySpec) Size() int {
	switch k {
	case AES256:
		return 32
	default:
		return 0
	}
}

// Object metadata keys. Names and order follow the S3 client-side-encryption
// convention and must not change.
const (
	HeaderContentAlgorithm = "x-amz-cek-alg"
	HeaderWrapAlgorithm    = "x-amz-wrap-alg"
	HeaderTagLength        = "x-amz-tag-len"
	HeaderContentLength    = "x-amz-unencrypted-content-length"
	HeaderIV               = "x-amz-iv"
	HeaderMatDesc          = "x-amz-matdesc"
	HeaderKeyV2            = "x-amz-key-v2"
)

// HeaderOrder is the fixed order in which metadata fields are emitted.
var HeaderOrder = []string{
	HeaderContentAlgorithm,
	HeaderWrapAlgorithm,
	HeaderTagLength,
	HeaderContentLength,
	HeaderIV,
	HeaderMatDesc,
	HeaderKeyV2,
}

// CipherSuite holds the immutable algorithm parameters of an envelope encryption.
//
// It is passed by value into the cipher at construction so no component reads
// algorithm identifiers from package-level mutable state.
type CipherSuite struct {
	ContentAlgorithm string  // value of x-amz-cek-alg
	WrapAlgorithm    string  // value of x-amz-wrap-alg
	TagLengthBits    int     // authentication tag length, in bits
	NonceSize        int     // nonce length, in bytes
	KeySpec          KeySpec // data key spec requested from KMS
}

// DefaultCipherSuite returns AES-256-GCM with a 96-bit nonce and a 128-bit tag,
// wrapped by KMS.
func DefaultCipherSuite() CipherSuite {
	return CipherSuite{
		ContentAlgorithm: "AES/GCM/NoPadding",
		WrapAlgorithm:    "kms",
		TagLengthBits:    128,
		NonceSize:        12,
		KeySpec:          AES256,
	}
}

// KeySize returns the data key length in bytes.
func (c CipherSuite) KeySize() int {
	return c.KeySpec.Size()
}

// TagSize returns the authentication tag length in bytes.
func (c CipherSuite) TagSize() int {
	return c.TagLengthBits / 8
}
