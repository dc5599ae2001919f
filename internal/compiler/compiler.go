// Package compiler validates and compiles WASM modules for the
// sandboxed executor, sharing one wasmtime engine across every
// deployed function.
package compiler

import (
	"context"

	"github.com/bytecodealliance/wasmtime-go/v3"
)

// requiredExports every deployable module must provide.
var requiredExports = []string{"process", "on_error"}

// Artifact is a validated, compiled module. It is safe to Clone and
// share across concurrent Execute calls: wasmtime modules are
// internally refcounted and thread-safe for concurrent instantiation.
type Artifact struct {
	engine *wasmtime.Engine
	module *wasmtime.Module

	// ModulePath is the on-disk location of the raw module bytes, used
	// by the sandboxed executor to re-load the module inside an
	// isolated worker process. The on-disk wasmtime compilation cache
	// (Config.CacheConfigLoadDefault) makes that re-load effectively
	// free.
	ModulePath string
}

// Clone returns a struct copy. O(1): it shares the underlying engine
// and module pointers rather than duplicating compiled code.
func (a *Artifact) Clone() *Artifact {
	c := *a
	return &c
}

// Compiler compiles and validates raw WASM bytes against a single
// shared engine, configured once at startup.
type Compiler struct {
	engine *wasmtime.Engine
}

// New builds a Compiler with an engine configured to disallow the
// WASM features the sandbox does not support, and to keep an on-disk
// compilation cache so repeated compiles of identical bytes are O(load).
func New() (*Compiler, error) {
	cfg := wasmtime.NewConfig()
	cfg.SetWasmReferenceTypes(false)
	cfg.SetWasmSIMD(false)
	cfg.SetWasmThreads(false)
	cfg.SetWasmBulkMemory(false)
	cfg.SetWasmMultiValue(true)
	cfg.SetWasmMultiMemory(false)

	if err := cfg.CacheConfigLoadDefault(); err != nil {
		return nil, err
	}

	return &Compiler{engine: wasmtime.NewEngineWithConfig(cfg)}, nil
}

// Compile parses raw as a WASM module, validates it exports `process`
// and `on_error`, and returns a reusable Artifact. path is recorded so
// the executor can re-load the module bytes inside a worker process.
func (c *Compiler) Compile(_ context.Context, raw []byte, path string) (*Artifact, error) {
	module, err := wasmtime.NewModule(c.engine, raw)
	if err != nil {
		return nil, &CompileError{Kind: Parse, Err: err}
	}

	exported := make(map[string]bool, len(module.Exports()))
	for _, exp := range module.Exports() {
		exported[exp.Name()] = true
	}

	for _, name := range requiredExports {
		if !exported[name] {
			return nil, &CompileError{Kind: MissingExport, Detail: name}
		}
	}

	return &Artifact{engine: c.engine, module: module, ModulePath: path}, nil
}

// Engine returns the shared engine. The worker subprocess does not use
// it: RunWorker builds its own engine with the same settings.
func (c *Compiler) Engine() *wasmtime.Engine {
	return c.engine
}
