// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package cmd implements the wasmrunner command line tool.
package cmd

import (
	"github.com/spf13/cobra"
)

// RootCommand is the base CLI command that all subcommands are added to.
var RootCommand = &cobra.Command{
	Use:   "wasmrunner",
	Short: "wasmrunner runs sandboxed WASM functions",
	Long:  "A function-as-a-service runner that deploys and executes sandboxed WebAssembly modules from a watched directory.",
}

func init() {
	initRun(RootCommand)
	initVersion(RootCommand)
	initWorker(RootCommand)
}
