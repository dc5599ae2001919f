// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package server

import "github.com/wasmrunner/wasmrunner/server/writer"

const (
	codeInternal         = writer.CodeInternal
	codeInvalidParameter = writer.CodeInvalidParameter
)

// functionV1 is one deployed function in a list response.
type functionV1 struct {
	Name              string  `json:"name"`
	State             string  `json:"state"`
	Successes         uint64  `json:"successes"`
	Failures          uint64  `json:"failures"`
	TotalMessages     uint64  `json:"total_messages"`
	FailRatePerMinute float64 `json:"fail_rate_per_minute"`
}

type listResponseV1 struct {
	Result []functionV1 `json:"result"`
}
