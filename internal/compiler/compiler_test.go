package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validModule exports two empty functions, "process" and "on_error".
var validModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type section: () -> ()
	0x03, 0x03, 0x02, 0x00, 0x00, // function section: 2 funcs of type 0
	0x07, 0x16, 0x02, // export section: 2 exports
	0x07, 0x70, 0x72, 0x6f, 0x63, 0x65, 0x73, 0x73, 0x00, 0x00, // "process" func 0
	0x08, 0x6f, 0x6e, 0x5f, 0x65, 0x72, 0x72, 0x6f, 0x72, 0x00, 0x01, // "on_error" func 1
	0x0a, 0x07, 0x02, 0x02, 0x00, 0x0b, 0x02, 0x00, 0x0b, // code section: 2 empty bodies
}

// missingOnErrorModule exports only "process".
var missingOnErrorModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x0b, 0x01,
	0x07, 0x70, 0x72, 0x6f, 0x63, 0x65, 0x73, 0x73, 0x00, 0x00,
	0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b,
}

func writeModule(t *testing.T, dir, name string, raw []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestCompileValid(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	dir := t.TempDir()
	path := writeModule(t, dir, "fn.wasm", validModule)

	artifact, err := c.Compile(context.Background(), validModule, path)
	require.NoError(t, err)
	assert.Equal(t, path, artifact.ModulePath)

	clone := artifact.Clone()
	assert.Equal(t, artifact.ModulePath, clone.ModulePath)
}

func TestCompileMissingExport(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	dir := t.TempDir()
	path := writeModule(t, dir, "fn.wasm", missingOnErrorModule)

	_, err = c.Compile(context.Background(), missingOnErrorModule, path)
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, MissingExport, compileErr.Kind)
	assert.Equal(t, "on_error", compileErr.Detail)
}

func TestCompileInvalidBytes(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	dir := t.TempDir()
	garbage := []byte{0x00, 0x01, 0x02, 0x03}
	path := writeModule(t, dir, "fn.wasm", garbage)

	_, err = c.Compile(context.Background(), garbage, path)
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, Parse, compileErr.Kind)
}
