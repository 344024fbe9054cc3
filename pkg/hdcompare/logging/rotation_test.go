package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingWriter_Append(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "hdcompare.log")
	w, err := NewRotatingWriter(path, RotationConfig{})
	require.NoError(t, err)

	_, err = w.Write([]byte("one\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = NewRotatingWriter(path, RotationConfig{})
	require.NoError(t, err)
	_, err = w.Write([]byte("two\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestRotatingWriter_RotatesOnSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "hdcompare.log")
	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 10})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	_, err = w.Write([]byte("12345678\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abcdefgh\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh\n", string(data))

	rotated := w.rotated()
	require.Len(t, rotated, 1)
	old, err := os.ReadFile(rotated[0])
	require.NoError(t, err)
	assert.Equal(t, "12345678\n", string(old))
	assert.True(t, strings.HasPrefix(filepath.Base(rotated[0]), "hdcompare."))
}

func TestRotatingWriter_OversizedFirstWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hdcompare.log")
	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 4})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	_, err = w.Write([]byte("longer than four\n"))
	require.NoError(t, err)
	assert.Empty(t, w.rotated())
}

func TestRotatingWriter_MaxBackups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "hdcompare.log")

	// Pre-existing rotated files, oldest first.
	for i, name := range []string{
		"hdcompare.2026-01-01-000000.000.log",
		"hdcompare.2026-01-02-000000.000.log",
		"hdcompare.2026-01-03-000000.000.log",
	} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		mod := time.Now().Add(time.Duration(i-10) * time.Hour)
		require.NoError(t, os.Chtimes(p, mod, mod))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.log"), []byte("x"), 0o644))

	w, err := NewRotatingWriter(path, RotationConfig{MaxBackups: 2})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	rotated := w.rotated()
	require.Len(t, rotated, 2)
	assert.Equal(t, filepath.Join(dir, "hdcompare.2026-01-03-000000.000.log"), rotated[0])
	assert.Equal(t, filepath.Join(dir, "hdcompare.2026-01-02-000000.000.log"), rotated[1])
	assert.FileExists(t, filepath.Join(dir, "unrelated.log"))
}

func TestRotatingWriter_MaxAge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "hdcompare.log")

	stale := filepath.Join(dir, "hdcompare.2025-01-01-000000.000.log")
	fresh := filepath.Join(dir, "hdcompare.2026-10-01-000000.000.log")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	old := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	w, err := NewRotatingWriter(path, RotationConfig{MaxAge: 1})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	t.Parallel()

	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "hdcompare.log"), RotationConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestRotatingWriter_RenameFailureKeepsWriting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "hdcompare.log")
	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 10})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	w.now = func() time.Time { return at }

	// A non-empty directory at the rotated name makes the rename fail.
	blocker := w.rotatedName(at)
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "sub"), 0o755))

	_, err = w.Write([]byte("12345678\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abcdefgh\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, os.ErrClosed)
	assert.Contains(t, err.Error(), "renaming log file")

	require.NoError(t, os.RemoveAll(blocker))

	_, err = w.Write([]byte("abcdefgh\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh\n", string(data))

	old, err := os.ReadFile(blocker)
	require.NoError(t, err)
	assert.Equal(t, "12345678\n", string(old))
}
