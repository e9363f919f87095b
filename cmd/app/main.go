// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/awnumar/memguard"
	"github.com/urfave/cli/v3"
)

// Build-time version information (injected via ldflags during build).
var (
	version = "v0.1.0" // Semantic version
)

func main() {
	// Wipe guarded buffers if the process is interrupted mid-encryption.
	memguard.CatchInterrupt()

	cmd := &cli.Command{
		Name:     "app",
		Usage:    "Client-side envelope encryption of files with a KMS master key",
		Version:  version,
		Commands: getCommands(),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		memguard.SafeExit(1)
	}
	memguard.Purge()
}
