package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sagarc03/pitfall"
	"github.com/sagarc03/pitfall/filesystem"
)

var addCmd = &cobra.Command{
	Use:   "add [flags] <file1> [file2] ...",
	Short: "Copy files into the uploads directory",
	Long: `Copy files from external paths into the uploads directory.

The uploads directory is flat: each file is stored under its base name,
sanitized the same way GET /file sanitizes names. Directories are skipped.

Examples:
  # Add a single file
  pitfall add /path/to/notes.txt

  # Store under a different name
  pitfall add --name report.txt /tmp/draft.txt

  # Skip existing files
  pitfall add --no-clobber a.txt b.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addName      string
	addNoClobber bool
	addQuiet     bool
)

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "stored name (only with a single file)")
	addCmd.Flags().BoolVarP(&addNoClobber, "no-clobber", "n", false, "skip existing files instead of overwriting")
	addCmd.Flags().BoolVarP(&addQuiet, "quiet", "q", false, "suppress per-file output")
	rootCmd.AddCommand(addCmd)
}

// fileEntry represents a file to be added with its source path and stored name.
type fileEntry struct {
	sourcePath string
	name       string
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}

	if addName != "" && len(args) != 1 {
		return fmt.Errorf("--name needs exactly one file, got %d", len(args))
	}

	ctx := cmd.Context()

	storage, err := filesystem.NewFileStorage(cfg.Files.Path)
	if err != nil {
		return fmt.Errorf("open uploads directory %s: %w (run 'pitfall init' first)", cfg.Files.Path, err)
	}
	defer func() { _ = storage.Close() }()

	files, err := collectFiles(args, addName)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		slog.Info("no files to add")
		return nil
	}

	added := 0
	skipped := 0

	for _, entry := range files {
		if addNoClobber {
			if _, readErr := storage.Read(ctx, entry.name); readErr == nil {
				skipped++
				if !addQuiet {
					slog.Info("skipped (exists)", "name", entry.name)
				}
				continue
			}
		}

		f, openErr := os.Open(entry.sourcePath)
		if openErr != nil {
			return fmt.Errorf("open %s: %w", entry.sourcePath, openErr)
		}

		n, writeErr := storage.Write(ctx, entry.name, f)
		_ = f.Close()

		if writeErr != nil {
			return fmt.Errorf("add %s: %w", entry.name, writeErr)
		}

		added++
		if !addQuiet {
			slog.Info("added", "name", entry.name, "bytes", n)
		}
	}

	slog.Info("add complete", "added", added, "skipped", skipped)
	return nil
}

// collectFiles maps each regular file in paths to its stored name.
func collectFiles(paths []string, name string) ([]fileEntry, error) {
	var entries []fileEntry
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if info.IsDir() {
			slog.Warn("skipping directory", "path", path)
			continue
		}

		stored := name
		if stored == "" {
			stored = filepath.Base(path)
		}
		stored = pitfall.SanitizeFilename(stored)
		if !pitfall.IsValidFilename(stored) {
			return nil, fmt.Errorf("%s: no usable file name after sanitizing", path)
		}

		entries = append(entries, fileEntry{sourcePath: path, name: stored})
	}
	return entries, nil
}
