// Package validation provides custom validation rules for the application.
package validation

import (
	"net/url"
	"regexp"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/kms-envelope/internal/errors"
)

var (
	// keyIDPattern matches a bare KMS key id: a UUID or a multi-Region "mrk-" id.
	keyIDPattern = `(?:mrk-[0-9a-f]{32}|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})`
	aliasPattern = `alias/[a-zA-Z0-9/_-]{1,250}`
	arnPrefix    = `arn:aws[a-zA-Z-]*:kms:[a-z0-9-]+:[0-9]{12}:`

	kmsKeyIDRegex = regexp.MustCompile(
		`^(?:` + keyIDPattern + `|` + aliasPattern + `|` + arnPrefix + `key/` + keyIDPattern + `|` + arnPrefix + aliasPattern + `)$`,
	)
)

// WrapValidationError wraps validation errors as ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// KMSKeyID validates an AWS KMS key identifier: key id, key ARN, alias name or alias ARN.
var KMSKeyID = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_kms_key_id_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if !kmsKeyIDRegex.MatchString(s) {
		return validation.NewError(
			"validation_kms_key_id",
			"must be a KMS key id, key ARN, alias name or alias ARN",
		)
	}
	return nil
})

// CloudURL validates a gocloud.dev URL: a secrets keeper (base64key://, awskms://)
// or a blob bucket (s3://, file://).
var CloudURL = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_cloud_url_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return validation.NewError("validation_cloud_url", "must be a URL with a scheme")
	}
	return nil
})
