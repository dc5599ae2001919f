// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/wasmrunner/wasmrunner/log"
)

// LoggingHandler wraps inner, logging request and response
// information with latency and status around every call.
type LoggingHandler struct {
	logger    log.Logger
	inner     http.Handler
	requestID uint64
}

// NewLoggingHandler returns a new http.Handler.
func NewLoggingHandler(logger log.Logger, inner http.Handler) http.Handler {
	return &LoggingHandler{logger: logger, inner: inner}
}

func (h *LoggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := atomic.AddUint64(&h.requestID, 1)
	rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	t0 := time.Now()

	h.logger.WithFields(log.Fields{
		"req_id":     id,
		"req_method": r.Method,
		"req_path":   r.URL.EscapedPath(),
	}).Info("request received")

	h.inner.ServeHTTP(rec, r)

	h.logger.WithFields(log.Fields{
		"req_id":        id,
		"resp_status":   rec.statusCode,
		"resp_bytes":    rec.bytesWritten,
		"resp_duration": float64(time.Since(t0).Nanoseconds()) / 1e6,
	}).Info("response sent")
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.statusCode = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(bs []byte) (int, error) {
	n, err := r.ResponseWriter.Write(bs)
	r.bytesWritten += n
	return n, err
}
