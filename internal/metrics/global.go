// Copyright 2018 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package metrics abstracts the process-wide metrics backend used to
// instrument HTTP routes and count per-function invocation outcomes.
package metrics

import (
	"net/http"
)

// GlobalMetrics abstracts metric providers API
type GlobalMetrics interface {
	RegisterEndpoints(registrar func(path, method string, handler http.Handler))
	InstrumentHandler(handler http.Handler, label string) http.Handler
	Gather() (interface{}, error)
	Name() string

	// IncrementSuccess and IncrementFailure record one execute
	// invocation's outcome for name.
	IncrementSuccess(name string)
	IncrementFailure(name string)
}
