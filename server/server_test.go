package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmrunner/wasmrunner/rpc"
)

type fakeService struct {
	statuses []rpc.FunctionStatus
	loadErr  error
	execOut  []byte
	execErr  error
}

func (f *fakeService) List(context.Context) ([]rpc.FunctionStatus, error) {
	return f.statuses, nil
}

func (f *fakeService) Load(_ context.Context, _ string, r io.Reader) error {
	io.Copy(io.Discard, r)
	return f.loadErr
}

func (f *fakeService) Execute(context.Context, string, []byte) ([]byte, error) {
	return f.execOut, f.execErr
}

func newTestServer(t *testing.T, svc rpc.Service) *Server {
	t.Helper()
	s, err := New().WithAddress("127.0.0.1:0").WithService(svc).Init(context.Background())
	require.NoError(t, err)
	return s
}

func TestListFunctions(t *testing.T) {
	svc := &fakeService{statuses: []rpc.FunctionStatus{{Name: "greet", State: "deployed"}}}
	s := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/functions", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body listResponseV1
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Result, 1)
	assert.Equal(t, "greet", body.Result[0].Name)
}

func TestLoadFunction(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodPut, "/v1/functions/greet", strings.NewReader("wasm bytes"))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExecuteFunctionNotFound(t *testing.T) {
	svc := &fakeService{execErr: rpc.ErrNotFound}
	s := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/functions/missing/execute", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecuteFunctionSuccess(t *testing.T) {
	svc := &fakeService{execOut: []byte("result bytes")}
	s := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/functions/greet/execute", strings.NewReader("input"))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "result bytes", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	svc := &fakeService{statuses: []rpc.FunctionStatus{{Name: "greet", State: "deployed"}}}
	s := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/functions", nil)
	s.Handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wasmrunner_http_request_duration_seconds")
}
