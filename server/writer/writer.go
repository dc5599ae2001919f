// Copyright 2017 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package writer contains utilities for writing responses in the server.
package writer

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/wasmrunner/wasmrunner/internal/compiler"
	"github.com/wasmrunner/wasmrunner/internal/deploy"
	"github.com/wasmrunner/wasmrunner/internal/executor"
	"github.com/wasmrunner/wasmrunner/rpc"
)

// Error codes used in ErrorBody.Code.
const (
	CodeInternal         = "internal_error"
	CodeInvalidParameter = "invalid_parameter"
	CodeResourceNotFound = "resource_not_found"
)

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorAuto writes a response with status and code set automatically
// based on the type of err, walking err's cause chain with
// errors.Cause the same way the teacher's ErrorAuto walks ast/storage/
// topdown error types.
func ErrorAuto(w http.ResponseWriter, err error) {
	var prev error
	for curr := err; curr != prev; {
		switch curr.(type) {
		case *compiler.CompileError:
			ErrorString(w, http.StatusBadRequest, CodeInvalidParameter, err)
			return
		case *deploy.StreamError:
			ErrorString(w, http.StatusBadRequest, CodeInvalidParameter, err)
			return
		case *executor.ExecuteError:
			ErrorString(w, http.StatusUnprocessableEntity, CodeInvalidParameter, err)
			return
		}
		if curr == rpc.ErrNotFound {
			ErrorString(w, http.StatusNotFound, CodeResourceNotFound, err)
			return
		}
		prev = curr
		curr = errors.Cause(prev)
	}
	ErrorString(w, http.StatusInternalServerError, CodeInternal, err)
}

func (e *ErrorBody) bytes() []byte {
	bs, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil
	}
	return bs
}

// ErrorString writes status with code and err's message as the JSON body.
func ErrorString(w http.ResponseWriter, status int, code string, err error) {
	Error(w, status, &ErrorBody{Code: code, Message: err.Error()})
}

// Error writes status with body as the JSON error response.
func Error(w http.ResponseWriter, status int, body *ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	Bytes(w, status, body.bytes())
}

// JSON writes status and v, JSON-encoded.
func JSON(w http.ResponseWriter, status int, v interface{}, pretty bool) {
	var bs []byte
	var err error

	if pretty {
		bs, err = json.MarshalIndent(v, "", "  ")
	} else {
		bs, err = json.Marshal(v)
	}

	if err != nil {
		ErrorString(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	Bytes(w, status, bs)
}

// Bytes writes status and bs as the raw response body.
func Bytes(w http.ResponseWriter, status int, bs []byte) {
	w.WriteHeader(status)
	if status == http.StatusNoContent {
		return
	}
	w.Write(bs)
}
