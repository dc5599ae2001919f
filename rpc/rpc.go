// Package rpc defines the transport-agnostic operations a wasmrunner
// daemon exposes. How those operations reach the wire (HTTP, some
// other framing) is the server package's concern, not this one's.
package rpc

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Execute when name has no deployed
// function.
var ErrNotFound = errors.New("rpc: function not found")

// FunctionStatus is one deployed function's externally visible state.
// The four counters are always zero: List does not read the
// per-function Prometheus counters that Execute increments back into
// this struct.
type FunctionStatus struct {
	Name              string
	State             string
	Successes         uint64
	Failures          uint64
	TotalMessages     uint64
	FailRatePerMinute float64
}

// Service is the semantic contract of the RPC surface, independent of
// any wire framing.
type Service interface {
	// List returns every currently deployed function.
	List(ctx context.Context) ([]FunctionStatus, error)

	// Load streams a module's bytes into the watched directory under
	// name, waiting for the post-upload reconciliation tick to finish
	// before returning.
	Load(ctx context.Context, name string, r io.Reader) error

	// Execute runs name's process export against body, returning its
	// result or ErrNotFound if name is not deployed.
	Execute(ctx context.Context, name string, body []byte) ([]byte, error)
}
