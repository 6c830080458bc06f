package filesystem_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sagarc03/pitfall"
	"github.com/sagarc03/pitfall/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()
	tempDir := t.TempDir()
	store, err := filesystem.NewFileStorage(tempDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, tempDir
}

func TestNewFileStorage_MissingDirectory(t *testing.T) {
	_, err := filesystem.NewFileStorage(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestNewFileStorage_RelativeDirectoryIsResolved(t *testing.T) {
	tempDir := t.TempDir()
	t.Chdir(tempDir)
	require.NoError(t, os.Mkdir("uploads", 0o755))

	store, err := filesystem.NewFileStorage("uploads")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.True(t, filepath.IsAbs(store.Base()))
	assert.True(t, strings.HasSuffix(store.Base(), "uploads"))
}

func TestStore_Read_Success(t *testing.T) {
	store, tempDir := newStore(t)

	content := []byte("line one\nline two\n")
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "test.txt"), content, 0o644))

	got, err := store.Read(context.Background(), "test.txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestStore_Read_EmptyFile(t *testing.T) {
	store, tempDir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "empty.txt"), nil, 0o644))

	got, err := store.Read(context.Background(), "empty.txt")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Read_NotFound(t *testing.T) {
	store, _ := newStore(t)

	got, err := store.Read(context.Background(), "nonexistent.txt")
	assert.ErrorIs(t, err, pitfall.ErrNotFound)
	assert.Nil(t, got)
}

func TestStore_Read_DirectoryIsNotFound(t *testing.T) {
	store, tempDir := newStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "sub"), 0o755))

	for _, name := range []string{"", ".", "sub"} {
		_, err := store.Read(context.Background(), name)
		assert.ErrorIs(t, err, pitfall.ErrNotFound, "name %q", name)
	}
}

func TestStore_Read_ContextCanceled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := store.Read(ctx, "test.txt")
	assert.Nil(t, got)
	assert.Equal(t, context.Canceled, err)
}

func TestStore_Resolve(t *testing.T) {
	store, _ := newStore(t)
	base := store.Base()

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "file.txt", want: filepath.Join(base, "file.txt")},
		{name: "", want: base},
		{name: ".", want: base},
		{name: "./file.txt", want: filepath.Join(base, "file.txt")},
		{name: "sub/../file.txt", want: filepath.Join(base, "file.txt")},
		{name: "..", wantErr: true},
		{name: "../../etc/passwd", wantErr: true},
		{name: "sub/../../outside.txt", wantErr: true},
		{name: "/etc/passwd", want: filepath.Join(base, "etc", "passwd")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Resolve(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, pitfall.ErrInvalidPath)
				assert.ErrorIs(t, err, pitfall.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Read_RedundantSegmentsEscapingBase(t *testing.T) {
	parent := t.TempDir()
	base := filepath.Join(parent, "uploads")
	require.NoError(t, os.Mkdir(base, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("secret"), 0o644))

	store, err := filesystem.NewFileStorage(base)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	for _, name := range []string{"../secret.txt", "./../secret.txt", "x/../../secret.txt"} {
		got, err := store.Read(context.Background(), name)
		assert.ErrorIs(t, err, pitfall.ErrInvalidPath, "name %q", name)
		assert.Nil(t, got)
	}
}

func TestStore_Read_SymlinkEscapeRejected(t *testing.T) {
	parent := t.TempDir()
	base := filepath.Join(parent, "uploads")
	require.NoError(t, os.Mkdir(base, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("secret"), 0o644))

	if err := os.Symlink(filepath.Join(parent, "secret.txt"), filepath.Join(base, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	store, err := filesystem.NewFileStorage(base)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	got, err := store.Read(context.Background(), "link.txt")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, pitfall.ErrNotFound))
	assert.Nil(t, got)
}

func TestStore_Write_Success(t *testing.T) {
	store, tempDir := newStore(t)

	n, err := store.Write(context.Background(), "test.txt", bytes.NewReader([]byte("test content")))
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	data, err := os.ReadFile(filepath.Join(tempDir, "test.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("test content"), data)
}

func TestStore_Write_Overwrites(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Write(ctx, "a.txt", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = store.Write(ctx, "a.txt", strings.NewReader("second"))
	require.NoError(t, err)

	got, err := store.Read(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestStore_Write_RejectsUnsafeNames(t *testing.T) {
	store, _ := newStore(t)

	for _, name := range []string{"", "../x.txt", "sub/x.txt", `a\b`, "with space.txt"} {
		_, err := store.Write(context.Background(), name, strings.NewReader("x"))
		assert.ErrorIs(t, err, pitfall.ErrInvalidInput, "name %q", name)
	}
}

func TestStore_Write_ContextCanceledBefore(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := store.Write(ctx, "test.txt", strings.NewReader("test"))
	assert.Equal(t, int64(0), n)
	assert.Equal(t, context.Canceled, err)
}

func TestStore_List(t *testing.T) {
	store, tempDir := newStore(t)
	ctx := context.Background()

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.NotNil(t, names)

	_, err = store.Write(ctx, "b.txt", strings.NewReader("b"))
	require.NoError(t, err)
	_, err = store.Write(ctx, "a.txt", strings.NewReader("a"))
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "dir"), 0o755))

	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestStore_ConcurrentReads(t *testing.T) {
	store, tempDir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "shared.txt"), []byte("shared"), 0o644))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.Read(context.Background(), "shared.txt")
			assert.NoError(t, err)
			assert.Equal(t, "shared", string(got))
		}()
	}
	wg.Wait()
}
