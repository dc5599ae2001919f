package rpc

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmrunner/wasmrunner/internal/compiler"
	"github.com/wasmrunner/wasmrunner/internal/controller"
	"github.com/wasmrunner/wasmrunner/internal/deploy"
	"github.com/wasmrunner/wasmrunner/internal/executor"
	"github.com/wasmrunner/wasmrunner/internal/scanner"
)

// fakeMetrics records IncrementSuccess/IncrementFailure calls without
// touching the process-wide Prometheus registry.
type fakeMetrics struct {
	successes map[string]int
	failures  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{successes: map[string]int{}, failures: map[string]int{}}
}

func (f *fakeMetrics) RegisterEndpoints(func(path, method string, handler http.Handler)) {}
func (f *fakeMetrics) InstrumentHandler(h http.Handler, _ string) http.Handler           { return h }
func (f *fakeMetrics) Gather() (interface{}, error)                                     { return nil, nil }
func (f *fakeMetrics) Name() string                                                     { return "fake" }
func (f *fakeMetrics) IncrementSuccess(name string)                                      { f.successes[name]++ }
func (f *fakeMetrics) IncrementFailure(name string)                                      { f.failures[name]++ }

var validModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
	0x03, 0x03, 0x02, 0x00, 0x00,
	0x07, 0x16, 0x02,
	0x07, 0x70, 0x72, 0x6f, 0x63, 0x65, 0x73, 0x73, 0x00, 0x00,
	0x08, 0x6f, 0x6e, 0x5f, 0x65, 0x72, 0x72, 0x6f, 0x72, 0x00, 0x01,
	0x0a, 0x07, 0x02, 0x02, 0x00, 0x0b, 0x02, 0x00, 0x0b,
}

func newTestService(t *testing.T) (Service, string) {
	t.Helper()
	dir := t.TempDir()

	c, err := compiler.New()
	require.NoError(t, err)
	ctrl := controller.New(dir, scanner.New(), c)
	w := deploy.New(dir)
	ex, err := executor.New()
	require.NoError(t, err)

	return NewService(ctrl, w, ex, nil), dir
}

func TestServiceLoadAndList(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Load(context.Background(), "greet", bytes.NewReader(validModule)))

	statuses, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "greet", statuses[0].Name)
	assert.Equal(t, "deployed", statuses[0].State)
	assert.Zero(t, statuses[0].Successes)
}

func TestServiceExecuteNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Execute(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceLoadRejectsBadModule(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Load(context.Background(), "broken", bytes.NewReader([]byte{0x00, 0x01}))
	require.Error(t, err)

	var compileErr *compiler.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, compiler.Parse, compileErr.Kind)

	statuses, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestServiceExecuteNotFoundSkipsMetrics(t *testing.T) {
	dir := t.TempDir()

	c, err := compiler.New()
	require.NoError(t, err)
	ctrl := controller.New(dir, scanner.New(), c)
	w := deploy.New(dir)
	ex, err := executor.New()
	require.NoError(t, err)

	fm := newFakeMetrics()
	svc := NewService(ctrl, w, ex, fm)

	// Execute exits before reaching the executor when the name isn't
	// deployed, so IncrementSuccess/IncrementFailure must not fire.
	_, err = svc.Execute(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, fm.successes)
	assert.Empty(t, fm.failures)
}

func TestServiceLoadRejectsModuleMissingExport(t *testing.T) {
	svc, _ := newTestService(t)

	noExports := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	}
	err := svc.Load(context.Background(), "no-exports", bytes.NewReader(noExports))
	require.Error(t, err)

	var compileErr *compiler.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, compiler.MissingExport, compileErr.Kind)
	assert.Equal(t, "process", compileErr.Detail)
}
