package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{}, 0o644))
}

func TestScanBasic(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "greet.wasm")
	touch(t, dir, "greet.wasm.part") // excluded: still being written
	touch(t, dir, "echo.wasm")
	touch(t, dir, "echo.deploy")

	entries, err := New().Scan(dir)
	require.NoError(t, err)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	sort.Strings(names)
	assert.Equal(t, []string{"echo", "greet"}, names)

	for _, e := range entries {
		if e.Name == "echo" {
			assert.Equal(t, "deploy", e.NextStatus)
		}
		if e.Name == "greet" {
			assert.Equal(t, "", e.NextStatus)
		}
	}
}

func TestIntentPrecedence(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "fn.wasm")
	touch(t, dir, "fn.deploy")
	touch(t, dir, "fn.redeploy")
	touch(t, dir, "fn.undeploy")

	entries, err := New().Scan(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "redeploy", entries[0].NextStatus)
}

func TestDeleteSideFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "fn.wasm")
	touch(t, dir, "fn.deploy")

	errs := New().DeleteSideFiles(dir)
	assert.Empty(t, errs)

	_, err := os.Stat(filepath.Join(dir, "fn.deploy"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dir, "fn.wasm"))
	assert.NoError(t, err)
}
