package validation

import (
	"encoding/base64"
	"fmt"

	validation "github.com/jellydator/validation"
)

// Base64 validates that a string is valid base64-encoded data.
var Base64 = validation.By(func(value interface{}) error {
	_, err := decodeBase64(value)
	return err
})

// Base64OfLength validates standard base64 that decodes to exactly n bytes.
func Base64OfLength(n int) validation.Rule {
	return validation.By(func(value interface{}) error {
		raw, err := decodeBase64(value)
		if err != nil || raw == nil {
			return err
		}
		if len(raw) != n {
			return validation.NewError(
				"validation_base64_length",
				fmt.Sprintf("must decode to %d bytes", n),
			)
		}
		return nil
	})
}

func decodeBase64(value interface{}) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, validation.NewError("validation_base64_type", "must be a string")
	}
	if s == "" {
		return nil, nil // Let Required handle empty strings
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, validation.NewError("validation_base64", "must be valid base64-encoded data")
	}
	return raw, nil
}
