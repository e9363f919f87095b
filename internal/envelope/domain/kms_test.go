package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactKeyID(t *testing.T) {
	tests := []struct {
		name     string
		keyID    string
		expected string
	}{
		{name: "key arn", keyID: "arn:aws:kms:us-east-1:111122223333:key/1234abcd-12ab-34cd-56ef-1234567890ab", expected: "arn:aws:kms:us-east-1:111122223333:key/1234abcd-12ab-34cd-56ef-1234567890ab"},
		{name: "alias", keyID: "alias/vendor-files", expected: "alias/vendor-files"},
		{name: "remote keeper url", keyID: "gcpkms://projects/p/locations/global/keyRings/r/cryptoKeys/k", expected: "gcpkms://projects/p/locations/global/keyRings/r/cryptoKeys/k"},
		{name: "local keeper url", keyID: "base64key://c2VjcmV0LWtleS1tYXRlcmlhbA==", expected: "base64key://[REDACTED]"},
		{name: "upper-case scheme", keyID: "BASE64KEY://c2VjcmV0LWtleS1tYXRlcmlhbA==", expected: "base64key://[REDACTED]"},
		{name: "empty", keyID: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RedactKeyID(tt.keyID))
		})
	}
}

func TestRedactKeyMaterial(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		expected string
	}{
		{
			name:     "bad query parameter",
			msg:      `open keeper base64key://EwhowJoUmSBAbCh2dAMQfiGRSxyFstJjENKjK2TjvVw=?foo=bar: invalid query parameter "foo"`,
			expected: `open keeper base64key://[REDACTED]: invalid query parameter "foo"`,
		},
		{
			name:     "quoted url",
			msg:      `open keeper "base64key://c2VjcmV0": localsecrets: illegal base64 data`,
			expected: `open keeper "base64key://[REDACTED]": localsecrets: illegal base64 data`,
		},
		{
			name:     "several urls",
			msg:      "base64key://aaaa and base64key://bbbb",
			expected: "base64key://[REDACTED] and base64key://[REDACTED]",
		},
		{
			name:     "remote keeper untouched",
			msg:      "open keeper awskms://alias/files: access denied",
			expected: "open keeper awskms://alias/files: access denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RedactKeyMaterial(tt.msg))
		})
	}
}
