package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/kms-envelope/cmd/app/commands"
	"github.com/allisson/kms-envelope/internal/app"
	"github.com/allisson/kms-envelope/internal/config"
	apperrors "github.com/allisson/kms-envelope/internal/errors"
)

func getCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "encrypt",
			Usage:     "Encrypt a file under a fresh KMS data key and print its metadata",
			ArgsUsage: "<input_file> [kms_key_id]",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:    "context",
					Aliases: []string{"c"},
					Usage:   "Encryption context pair key=value, repeatable (default: kms_cmk_id=<key id>)",
				},
				&cli.StringFlag{
					Name:    "provider",
					Aliases: []string{"p"},
					Usage:   "Key provider: awskms or keeper (overrides KMS_PROVIDER)",
				},
				&cli.StringFlag{
					Name:    "bucket",
					Aliases: []string{"b"},
					Usage:   "gocloud.dev/blob bucket URL for the ciphertext (overrides OUTPUT_BUCKET_URL)",
				},
				&cli.StringFlag{
					Name:    "suffix",
					Aliases: []string{"s"},
					Usage:   "Suffix appended to the input name (overrides OUTPUT_SUFFIX)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				if cmd.Args().Len() < 1 || cmd.Args().Len() > 2 {
					return apperrors.Wrap(
						apperrors.ErrInvalidInput,
						fmt.Sprintf("usage: %s encrypt <input_file> [kms_key_id]", cmd.Root().Name),
					)
				}

				cfg := config.Load()
				if cmd.IsSet("provider") {
					cfg.KMSProvider = cmd.String("provider")
				}
				if cmd.IsSet("bucket") {
					cfg.OutputBucketURL = cmd.String("bucket")
				}
				if cmd.IsSet("suffix") {
					cfg.OutputSuffix = cmd.String("suffix")
				}
				if err := cfg.Validate(); err != nil {
					return err
				}

				container := app.NewContainer(cfg)
				defer commands.CloseContainer(container, container.Logger())

				encryptUseCase, err := container.EncryptUseCase()
				if err != nil {
					return err
				}

				masterKeyID := cmd.Args().Get(1)
				if masterKeyID == "" {
					masterKeyID = cfg.KMSKeyARN
				}

				return commands.RunEncryptFile(
					ctx,
					encryptUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					commands.EncryptFileParams{
						InputPath:    cmd.Args().Get(0),
						MasterKeyID:  masterKeyID,
						ContextPairs: cmd.StringSlice("context"),
						Timeout:      cfg.KMSTimeout,
					},
				)
			},
		},
		{
			Name:      "inspect-metadata",
			Usage:     "Decode a metadata line printed by encrypt",
			ArgsUsage: "<metadata_line>",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				if cmd.Args().Len() != 1 {
					return apperrors.Wrap(
						apperrors.ErrInvalidInput,
						fmt.Sprintf("usage: %s inspect-metadata <metadata_line>", cmd.Root().Name),
					)
				}
				return commands.RunInspectMetadata(commands.DefaultIO().Writer, cmd.Args().First())
			},
		},
	}
}
