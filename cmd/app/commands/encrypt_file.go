package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
	envelopeUsecase "github.com/allisson/kms-envelope/internal/envelope/usecase"
	apperrors "github.com/allisson/kms-envelope/internal/errors"
)

// EncryptFileParams holds the arguments of the encrypt command.
type EncryptFileParams struct {
	InputPath    string
	MasterKeyID  string
	ContextPairs []string
	Timeout      time.Duration
}

// RunEncryptFile encrypts the file at params.InputPath under a fresh data key and
// writes the metadata line to out. The ciphertext itself goes to the object
// repository configured in the use case.
//
// Without --context pairs the encryption context defaults to {"kms_cmk_id": <key id>}.
func RunEncryptFile(
	ctx context.Context,
	encryptUseCase envelopeUsecase.EncryptUseCase,
	logger *slog.Logger,
	out io.Writer,
	params EncryptFileParams,
) error {
	if params.InputPath == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "input file is required")
	}
	if params.MasterKeyID == "" {
		return apperrors.Wrap(
			apperrors.ErrInvalidInput,
			"kms key id is required: pass it as the second argument or set KMS_KEY_ARN",
		)
	}

	encCtx, err := parseContext(params.ContextPairs)
	if err != nil {
		return err
	}
	if len(encCtx) == 0 {
		encCtx = envelopeDomain.DefaultEncryptionContext(params.MasterKeyID)
	}

	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	output, err := encryptUseCase.EncryptFile(ctx, &envelopeUsecase.EncryptFileInput{
		Path:        params.InputPath,
		MasterKeyID: params.MasterKeyID,
		Context:     encCtx,
	})
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", params.InputPath, err)
	}

	if _, err := fmt.Fprintln(out, output.Result.Metadata.String()); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	logger.Info("file encrypted successfully",
		slog.String("object_key", output.ObjectKey),
		slog.Int("metadata_tags", output.Result.Metadata.Len()),
	)

	return nil
}
