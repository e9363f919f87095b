package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/aws/smithy-go"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
)

// KMSClient is the subset of the AWS KMS API used by AWSKMSKeyProvider.
type KMSClient interface {
	GenerateDataKey(
		ctx context.Context,
		params *kms.GenerateDataKeyInput,
		optFns ...func(*kms.Options),
	) (*kms.GenerateDataKeyOutput, error)
}

// NewAWSKMSClient builds a KMS client from the default credential chain.
//
// SDK retries are disabled; a failed call is reported once and retrying is the
// caller's decision. endpoint overrides the service URL (LocalStack, VPC endpoints).
func NewAWSKMSClient(ctx context.Context, region, endpoint string) (*kms.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return kms.NewFromConfig(cfg, func(o *kms.Options) {
		o.Retryer = aws.NopRetryer{}
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// AWSKMSKeyProvider generates data keys with the KMS GenerateDataKey operation.
type AWSKMSKeyProvider struct {
	client KMSClient
}

// NewAWSKMSKeyProvider creates a key provider backed by client.
func NewAWSKMSKeyProvider(client KMSClient) *AWSKMSKeyProvider {
	return &AWSKMSKeyProvider{client: client}
}

// GenerateDataKey asks KMS for a fresh data key under masterKeyID, bound to encCtx.
//
// The same encryption context must be supplied to KMS Decrypt to unwrap the key.
func (p *AWSKMSKeyProvider) GenerateDataKey(
	ctx context.Context,
	masterKeyID string,
	encCtx envelopeDomain.EncryptionContext,
	spec envelopeDomain.KeySpec,
) (*envelopeDomain.DataKey, error) {
	if masterKeyID == "" {
		return nil, p.fail(masterKeyID, fmt.Errorf("%w: empty key id", envelopeDomain.ErrKeyNotFound))
	}
	if err := encCtx.Validate(); err != nil {
		return nil, p.fail(masterKeyID, err)
	}

	input := &kms.GenerateDataKeyInput{
		KeyId:   aws.String(masterKeyID),
		KeySpec: kmstypes.DataKeySpec(spec),
	}
	if len(encCtx) > 0 {
		input.EncryptionContext = encCtx.Clone()
	}

	output, err := p.client.GenerateDataKey(ctx, input)
	if err != nil {
		return nil, p.fail(masterKeyID, classifyAWSError(err))
	}

	dataKey, err := envelopeDomain.NewDataKey(output.Plaintext, output.CiphertextBlob, spec)
	if err != nil {
		return nil, p.fail(masterKeyID, err)
	}
	return dataKey, nil
}

func (p *AWSKMSKeyProvider) fail(masterKeyID string, err error) error {
	return &envelopeDomain.KeyProviderError{Op: "GenerateDataKey", KeyID: masterKeyID, Err: err}
}

// classifyAWSError maps a KMS or transport error to a key provider failure.
// Anything unrecognized is treated as transient.
func classifyAWSError(err error) error {
	var (
		notFound       *kmstypes.NotFoundException
		invalidArn     *kmstypes.InvalidArnException
		disabled       *kmstypes.DisabledException
		invalidState   *kmstypes.KMSInvalidStateException
		invalidUsage   *kmstypes.InvalidKeyUsageException
		invalidGrant   *kmstypes.InvalidGrantTokenException
		keyUnavailable *kmstypes.KeyUnavailableException
		depTimeout     *kmstypes.DependencyTimeoutException
		internal       *kmstypes.KMSInternalException
	)

	switch {
	case errors.As(err, &notFound), errors.As(err, &invalidArn):
		return fmt.Errorf("%w: %v", envelopeDomain.ErrKeyNotFound, err)
	case errors.As(err, &disabled),
		errors.As(err, &invalidState),
		errors.As(err, &invalidUsage),
		errors.As(err, &invalidGrant):
		return fmt.Errorf("%w: %v", envelopeDomain.ErrUnauthorized, err)
	case errors.As(err, &keyUnavailable), errors.As(err, &depTimeout), errors.As(err, &internal):
		return fmt.Errorf("%w: %v", envelopeDomain.ErrTransientService, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException",
			"UnrecognizedClientException",
			"InvalidSignatureException",
			"IncompleteSignature",
			"ExpiredTokenException",
			"MissingAuthenticationToken":
			return fmt.Errorf("%w: %v", envelopeDomain.ErrUnauthorized, err)
		case "ValidationException":
			return fmt.Errorf("%w: %v", envelopeDomain.ErrInvalidContext, err)
		}
	}

	return fmt.Errorf("%w: %v", envelopeDomain.ErrTransientService, err)
}
