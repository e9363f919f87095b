package domain

import (
	"context"
	"regexp"
	"strings"
)

const localKeeperScheme = "base64key://"

// localKeeperURL matches a base64key:// URL embedded in free text, query included.
var localKeeperURL = regexp.MustCompile(`(?i)base64key://[^\s"':]*`)

// KMSKeeper wraps key material under a master key held by a KMS. *secrets.Keeper
// from gocloud.dev satisfies it.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Close() error
}

// RedactKeyID returns a master key identifier that is safe to log. A base64key://
// keeper URL carries the key itself and is reduced to its scheme.
func RedactKeyID(keyID string) string {
	if strings.HasPrefix(strings.ToLower(keyID), localKeeperScheme) {
		return localKeeperScheme + "[REDACTED]"
	}
	return keyID
}

// RedactKeyMaterial rewrites every base64key:// URL found in msg to its redacted
// form. Driver errors quote the URL they were given, malformed or not.
func RedactKeyMaterial(msg string) string {
	return localKeeperURL.ReplaceAllString(msg, localKeeperScheme+"[REDACTED]")
}
