package executor

import (
	"fmt"
	"os"

	"github.com/bytecodealliance/wasmtime-go/v3"
)

// Worker exit codes. finish() in executor.go maps these back to an
// ExecuteError Kind in the parent process. Any other non-zero code
// (including the generic 1 below) is classified as Aborted.
const (
	exitOK             = 0
	exitGenericFailure = 1
	// exitLink means the module could not be instantiated against the
	// restricted WASI surface (an unresolved or incompatible import),
	// or is missing a required export.
	exitLink = 2
	// exitTrap means the module instantiated but `process` trapped
	// during the call (unreachable, out-of-bounds, etc).
	exitTrap = 3
)

// RunWorker instantiates the module at modulePath in the current
// process and calls its `process` export, with the process's real
// stdin/stdout/stderr wired as the module's WASI stdio (the parent
// Executor piped those through exec.Cmd before re-exec'ing into this
// subcommand). It returns the process exit code, which finish()
// classifies as Link, Trap, or (for any other failure) Aborted. This
// runs only inside the `__wasmfn_exec_worker` subcommand, never in the
// daemon's own request path.
func RunWorker(modulePath string) int {
	raw, err := os.ReadFile(modulePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wasmfn worker: read module: %v\n", err)
		return exitGenericFailure
	}

	cfg := wasmtime.NewConfig()
	cfg.SetWasmReferenceTypes(false)
	cfg.SetWasmSIMD(false)
	cfg.SetWasmThreads(false)
	cfg.SetWasmBulkMemory(false)
	cfg.SetWasmMultiValue(true)
	cfg.SetWasmMultiMemory(false)
	if err := cfg.CacheConfigLoadDefault(); err != nil {
		fmt.Fprintf(os.Stderr, "wasmfn worker: cache config: %v\n", err)
		return exitGenericFailure
	}

	engine := wasmtime.NewEngineWithConfig(cfg)
	store := wasmtime.NewStore(engine)

	module, err := wasmtime.NewModule(engine, raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wasmfn worker: compile: %v\n", err)
		return exitGenericFailure
	}

	// No preopened directories, no network, no inherited environment:
	// the WASI surface is stdio only.
	wasiCfg := wasmtime.NewWasiConfig()
	wasiCfg.InheritStdin()
	wasiCfg.InheritStdout()
	wasiCfg.InheritStderr()
	store.SetWasi(wasiCfg)

	linker := wasmtime.NewLinker(engine)
	if err := linker.DefineWasi(); err != nil {
		fmt.Fprintf(os.Stderr, "wasmfn worker: link wasi: %v\n", err)
		return exitGenericFailure
	}

	instance, err := linker.Instantiate(store, module)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wasmfn worker: link: %v\n", err)
		return exitLink
	}

	process := instance.GetFunc(store, "process")
	if process == nil {
		fmt.Fprintln(os.Stderr, "wasmfn worker: module does not export process")
		return exitLink
	}

	if _, err := process.Call(store); err != nil {
		fmt.Fprintf(os.Stderr, "wasmfn worker: trap: %v\n", err)
		return exitTrap
	}

	return exitOK
}
