package service

import (
	"encoding/base64"
	"fmt"
	"strconv"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
)

// EnvelopeCipherService implements EnvelopeCipher for one CipherSuite.
type EnvelopeCipherService struct {
	suite       envelopeDomain.CipherSuite
	aeadManager AEADManager
}

// NewEnvelopeCipher creates an envelope cipher for suite.
func NewEnvelopeCipher(suite envelopeDomain.CipherSuite, aeadManager AEADManager) *EnvelopeCipherService {
	return &EnvelopeCipherService{
		suite:       suite,
		aeadManager: aeadManager,
	}
}

// Encrypt seals plaintext under the data key with a fresh nonce and no associated
// data, destroys the key, and assembles the x-amz-* metadata.
//
// The encryption context is not authenticated by the AEAD. It is bound to the
// wrapped key by KMS and carried in x-amz-matdesc, as the "kms" wrap algorithm of
// the S3 encryption client expects. The data key is destroyed on every path.
func (s *EnvelopeCipherService) Encrypt(
	plaintext []byte,
	dataKey *envelopeDomain.DataKey,
	masterKeyID string,
	encCtx envelopeDomain.EncryptionContext,
) (*envelopeDomain.EncryptionResult, error) {
	if dataKey == nil {
		return nil, cipherInitError("nil data key")
	}
	defer dataKey.Destroy()

	matDesc, err := encCtx.MarshalMatDesc()
	if err != nil {
		return nil, &envelopeDomain.CipherError{Op: "encrypt", Err: err}
	}

	key, err := dataKey.Plaintext()
	if err != nil {
		return nil, cipherInitError(err.Error())
	}
	if len(key) != s.suite.KeySize() {
		return nil, cipherInitError(fmt.Sprintf("key is %d bytes, suite requires %d", len(key), s.suite.KeySize()))
	}

	aead, err := s.aeadManager.CreateCipher(key, s.suite.ContentAlgorithm)
	if err != nil {
		return nil, &envelopeDomain.CipherError{Op: "encrypt", Err: err}
	}

	ciphertext, nonce, err := aead.Encrypt(plaintext, nil)
	dataKey.Destroy()
	if err != nil {
		return nil, &envelopeDomain.CipherError{Op: "encrypt", Err: fmt.Errorf("%w: %v", envelopeDomain.ErrCipherInit, err)}
	}
	if len(nonce) != s.suite.NonceSize {
		return nil, cipherInitError(fmt.Sprintf("nonce is %d bytes, suite requires %d", len(nonce), s.suite.NonceSize))
	}
	if len(ciphertext) != len(plaintext)+s.suite.TagSize() {
		return nil, cipherInitError(fmt.Sprintf("tag is %d bytes, suite requires %d", len(ciphertext)-len(plaintext), s.suite.TagSize()))
	}

	metadata := envelopeDomain.NewMetadata(
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderContentAlgorithm, Value: s.suite.ContentAlgorithm},
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderWrapAlgorithm, Value: s.suite.WrapAlgorithm},
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderTagLength, Value: strconv.Itoa(s.suite.TagLengthBits)},
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderContentLength, Value: strconv.Itoa(len(plaintext))},
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderIV, Value: base64.StdEncoding.EncodeToString(nonce)},
		envelopeDomain.MetadataEntry{Key: envelopeDomain.HeaderMatDesc, Value: matDesc},
		envelopeDomain.MetadataEntry{
			Key:   envelopeDomain.HeaderKeyV2,
			Value: base64.StdEncoding.EncodeToString(dataKey.CiphertextBlob),
		},
	)

	return &envelopeDomain.EncryptionResult{
		Ciphertext:  ciphertext,
		Metadata:    metadata,
		MasterKeyID: masterKeyID,
	}, nil
}

func cipherInitError(reason string) error {
	return &envelopeDomain.CipherError{Op: "encrypt", Err: fmt.Errorf("%w: %s", envelopeDomain.ErrCipherInit, reason)}
}
