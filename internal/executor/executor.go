// Package executor runs a compiled WASM module's `process` export
// inside an isolated worker process, enforcing a fixed wall-clock
// timeout.
package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/wasmrunner/wasmrunner/internal/compiler"
	"github.com/wasmrunner/wasmrunner/log"
)

// DefaultTimeout bounds a single Execute call.
const DefaultTimeout = 2000 * time.Millisecond

// WorkerSubcommand is the hidden argv[1] the daemon recognizes on
// re-exec to run as a sandboxed module worker instead of the full
// daemon. It is wired up in cmd/worker.go.
const WorkerSubcommand = "__wasmfn_exec_worker"

const stderrTailSize = 4 * 1024

// Executor runs modules out-of-process. wasmtime-go instantiates
// in-process, so true fork-style isolation comes from re-executing
// the daemon's own binary as a worker subprocess rather than from
// wasmtime itself.
type Executor struct {
	// exePath is the daemon binary to re-exec. Resolved once at
	// startup via os.Executable so every Execute call forks the same
	// binary regardless of the current working directory.
	exePath string
}

// New resolves the running binary's path for later re-exec.
func New() (*Executor, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return &Executor{exePath: exe}, nil
}

// Execute runs artifact's `process` export with input as its stdin
// payload, returning stdout on success. Each call gets its own pipes
// and child process; artifacts may be used concurrently without
// synchronization.
func (e *Executor) Execute(ctx context.Context, artifact *compiler.Artifact, input []byte) ([]byte, error) {
	if !platformSupportsSupervision() {
		log.Error("executor: process supervision unsupported on this platform")
		return nil, &ExecuteError{Kind: Unsupported}
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	cmd := exec.Command(e.exePath, WorkerSubcommand, artifact.ModulePath)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, &ExecuteError{Kind: Start, Err: err}
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	select {
	case err := <-exited:
		return finish(err, cmd, stdout.Bytes(), stderr.Bytes())

	case <-ctx.Done():
		done := make(chan struct{})
		go func() {
			<-exited
			close(done)
		}()
		terminate(cmd.Process, done)
		<-done
		return nil, &ExecuteError{Kind: Timeout}
	}
}

func finish(waitErr error, cmd *exec.Cmd, stdout, stderr []byte) ([]byte, error) {
	if waitErr == nil {
		return stdout, nil
	}

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	kind := Aborted
	switch exitCode {
	case exitLink:
		kind = Link
	case exitTrap:
		kind = Trap
	}

	return nil, &ExecuteError{
		Kind:       kind,
		ExitCode:   exitCode,
		StderrTail: tail(stderr, stderrTailSize),
		Err:        waitErr,
	}
}

// tail returns at most n trailing bytes of b, as a string.
func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
