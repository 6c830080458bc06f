// Package filesystem provides the uploads directory backend for pitfall.
// It resolves file names against an absolute base path, re-checks that the
// result stays inside it, and reads through an os.Root for sandboxed access.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sagarc03/pitfall"
)

// Store provides read access to files in a single base directory.
type Store struct {
	base string
	root *os.Root
}

// NewFileStorage opens dir as the base directory. The directory must exist.
func NewFileStorage(dir string) (*Store, error) {
	base, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}

	root, err := os.OpenRoot(base)
	if err != nil {
		return nil, fmt.Errorf("open base directory: %w", err)
	}

	return &Store{base: base, root: root}, nil
}

// Base returns the absolute base directory.
func (s *Store) Base() string {
	return s.base
}

// Close releases the underlying root handle.
func (s *Store) Close() error {
	return s.root.Close()
}

// Resolve joins name onto the base directory and returns the absolute
// result. It returns pitfall.ErrInvalidPath unless the resolved string
// starts with the base directory string.
func (s *Store) Resolve(name string) (string, error) {
	resolved, err := filepath.Abs(filepath.Join(s.base, name))
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", name, err)
	}

	if !strings.HasPrefix(resolved, s.base) {
		return "", pitfall.ErrInvalidPath
	}

	return resolved, nil
}

// Read returns the file contents. Returns pitfall.ErrNotFound if the file
// does not exist or names a directory.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(s.base, resolved)
	if err != nil {
		return nil, pitfall.ErrInvalidPath
	}

	f, err := s.root.Open(rel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, pitfall.ErrNotFound
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("open file: %w", err)
		}
		// os.Root refuses names that escape through symlinks
		return nil, fmt.Errorf("open file: %w: %w", pitfall.ErrInvalidPath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "name", rel, "err", closeErr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, pitfall.ErrNotFound
	}

	data, err := io.ReadAll(&ctxReader{ctx: ctx, r: f})
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content to name using a temp file and rename.
// name must pass pitfall.IsValidFilename. Returns the number of bytes written.
func (s *Store) Write(ctx context.Context, name string, content io.Reader) (int64, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}

	if !pitfall.IsValidFilename(name) || pitfall.SanitizeFilename(name) != name {
		return 0, fmt.Errorf("write %q: %w", name, pitfall.ErrInvalidInput)
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return 0, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	n, err := io.Copy(t, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return 0, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return 0, fmt.Errorf("could not sync written file: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, name); renameErr != nil {
		return 0, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return n, nil
}

// List returns the names of the regular files directly inside the base
// directory, skipping temp files.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || isTmpName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}

func isTmpName(name string) bool {
	if !strings.HasPrefix(name, ".t") {
		return false
	}
	_, err := uuid.Parse(strings.TrimPrefix(name, ".t"))
	return err == nil
}
