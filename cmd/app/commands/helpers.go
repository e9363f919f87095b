// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/allisson/kms-envelope/internal/app"
	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
	apperrors "github.com/allisson/kms-envelope/internal/errors"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// CloseContainer releases the container resources and logs any errors.
func CloseContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// parseContext converts repeated key=value flags into an encryption context.
// Later pairs override earlier ones with the same key.
func parseContext(pairs []string) (envelopeDomain.EncryptionContext, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	encCtx := make(envelopeDomain.EncryptionContext, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, apperrors.Wrapf(
				apperrors.ErrInvalidInput,
				"invalid context %q (expected key=value)",
				pair,
			)
		}
		encCtx[key] = value
	}
	return encCtx, nil
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
