package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagarc03/pitfall/filesystem"
)

const sampleFileName = "sample.txt"

const sampleFileContent = `This file lives in the uploads directory.
Request it with GET /file?name=sample.txt
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the uploads directory with a sample file",
	Long: `Create the uploads directory (files.path) if it does not exist and
write sample.txt into it, so GET /file has something to serve. An
existing sample.txt is left untouched.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if err = os.MkdirAll(cfg.Files.Path, 0o750); err != nil {
		return fmt.Errorf("create uploads directory: %w", err)
	}

	storage, err := filesystem.NewFileStorage(cfg.Files.Path)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	if _, readErr := storage.Read(ctx, sampleFileName); readErr == nil {
		slog.Info("sample file exists, skipping", "path", storage.Base(), "file", sampleFileName)
	} else {
		n, writeErr := storage.Write(ctx, sampleFileName, strings.NewReader(sampleFileContent))
		if writeErr != nil {
			return fmt.Errorf("write sample file: %w", writeErr)
		}
		slog.Info("sample file written", "file", sampleFileName, "bytes", n)
	}

	names, err := storage.List(ctx)
	if err != nil {
		return fmt.Errorf("list uploads directory: %w", err)
	}

	slog.Info("initialization complete", "path", storage.Base(), "files", len(names))
	return nil
}
