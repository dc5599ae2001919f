// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is the wasmrunner release version, set via -ldflags at
// build time. It defaults to "dev" for local builds.
var Version = "dev"

// Vcs is the VCS commit this binary was built from, set via -ldflags.
var Vcs = "unknown"

func initVersion(root *cobra.Command) {
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Print the version of wasmrunner",
		Long:  "Show version and build information for wasmrunner.",
		Run: func(cmd *cobra.Command, args []string) {
			generateVersionOutput(os.Stdout)
		},
	}

	root.AddCommand(versionCommand)
}

func generateVersionOutput(out io.Writer) {
	fmt.Fprintln(out, "Version: "+Version)
	fmt.Fprintln(out, "Build Commit: "+Vcs)
	fmt.Fprintln(out, "Go Version: "+runtime.Version())
}
