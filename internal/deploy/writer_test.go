package deploy

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRaw(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)

	kind, err := w.Write(context.Background(), "greet", bytes.NewReader([]byte("wasm bytes")))
	require.NoError(t, err)
	assert.Equal(t, SourceRaw, kind)

	data, err := os.ReadFile(filepath.Join(dir, "greet.wasm"))
	require.NoError(t, err)
	assert.Equal(t, "wasm bytes", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover .part file")
}

func TestWriteZipBundle(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("runnable.wasm")
	require.NoError(t, err)
	_, err = f.Write([]byte("module bytes"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	dir := t.TempDir()
	w := New(dir)

	kind, err := w.Write(context.Background(), "greet", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, SourceZip, kind)

	data, err := os.ReadFile(filepath.Join(dir, "greet.wasm"))
	require.NoError(t, err)
	assert.Equal(t, "module bytes", string(data))
}

func TestWriteZipMissingRunnable(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("other.txt")
	require.NoError(t, err)
	_, err = f.Write([]byte("nope"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	dir := t.TempDir()
	w := New(dir)

	_, err = w.Write(context.Background(), "greet", bytes.NewReader(buf.Bytes()))
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "greet.wasm"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteContextCanceled(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Write(ctx, "greet", bytes.NewReader([]byte("wasm bytes")))
	require.Error(t, err)

	entries, err2 := os.ReadDir(dir)
	require.NoError(t, err2)
	assert.Empty(t, entries, "partial file must be cleaned up")
}
