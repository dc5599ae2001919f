package deploy

import (
	"errors"
	"fmt"
)

// errMissingRunnable is returned when a zip payload has no
// runnable.wasm member.
var errMissingRunnable = errors.New("zip payload missing runnable.wasm")

// StreamError describes why a Load stream could not be written to
// disk.
type StreamError struct {
	Name string
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("deploy: %s: %v", e.Name, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
