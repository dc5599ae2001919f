// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wasmrunner/wasmrunner/internal/executor"
)

// initWorker registers the hidden subcommand the daemon re-execs
// itself into for each sandboxed invocation. It must match
// executor.WorkerSubcommand exactly, since Executor.Execute spawns
// os.Executable() with this as argv[1].
func initWorker(root *cobra.Command) {
	workerCommand := &cobra.Command{
		Use:    executor.WorkerSubcommand + " <module-path>",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := executor.RunWorker(args[0])
			if code != 0 {
				return newExitError(code)
			}
			return nil
		},
	}

	// The worker process communicates its result purely through its
	// exit code and inherited stdio; route cobra's own error output
	// there too instead of the default "Error: ..." banner.
	workerCommand.SilenceUsage = true
	workerCommand.SilenceErrors = true

	root.AddCommand(workerCommand)
}
