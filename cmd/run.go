// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	wasmconfig "github.com/wasmrunner/wasmrunner/config"
	"github.com/wasmrunner/wasmrunner/runtime"
	"github.com/wasmrunner/wasmrunner/util"
)

func initRun(root *cobra.Command) {
	var configFile string
	var configOverrides []string
	var configOverrideFiles []string

	var addr string
	var dir string
	var tickIntervalMS int
	var cacheDir string
	var shutdownGracePeriod int

	logLevel := util.NewEnumFlag("info", []string{"debug", "info", "error"})
	logFormat := util.NewEnumFlag("json", []string{"text", "json"})

	runCommand := &cobra.Command{
		Use:   "run",
		Short: "Start wasmrunner in server mode",
		Long: `Start an instance of wasmrunner.

The 'run' command starts the reconciler, which watches a directory for
WASM modules and their deploy/undeploy side-files, and the HTTP server,
which exposes the functions for invocation. Configuration is layered:
command-line flags take precedence over --set/--set-file overrides,
which take precedence over a YAML config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := wasmconfig.Load(wasmconfig.Params{
				ConfigFile:          configFile,
				ConfigOverrides:     configOverrides,
				ConfigOverrideFiles: configOverrideFiles,
				Addr:                addr,
				Dir:                 dir,
				TickIntervalMS:      tickIntervalMS,
				CacheDir:            cacheDir,
				LogLevel:            logLevel.String(),
				LogFormat:           logFormat.String(),
				ShutdownGracePeriod: shutdownGracePeriod,
			})
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			params := runtime.NewParams()
			params.Addr = cfg.Addr
			params.Dir = cfg.Dir
			params.TickInterval = time.Duration(cfg.TickIntervalMS) * time.Millisecond
			params.CacheDir = cfg.CacheDir
			params.Logging = runtime.LoggingConfig{Level: cfg.LogLevel, Format: cfg.LogFormat}
			params.GracefulShutdownPeriod = cfg.ShutdownGracePeriod

			ctx := context.Background()

			rt, err := runtime.NewRuntime(ctx, params)
			if err != nil {
				return fmt.Errorf("start runtime: %w", err)
			}

			return rt.Serve(ctx)
		},
	}

	addConfigFileFlag(runCommand.Flags(), &configFile)
	addConfigOverrides(runCommand.Flags(), &configOverrides)
	addConfigOverrideFiles(runCommand.Flags(), &configOverrideFiles)

	runCommand.Flags().StringVarP(&addr, "addr", "a", "", "set listening address of the server (e.g. :8181)")
	runCommand.Flags().StringVarP(&dir, "dir", "d", "", "set the directory to watch for deployable modules")
	runCommand.Flags().IntVar(&tickIntervalMS, "tick-interval", 0, "set the reconciler poll interval in milliseconds")
	runCommand.Flags().StringVar(&cacheDir, "cache-dir", "", "set a cache directory to create at startup (the compiler keeps its module cache in wasmtime's default location)")
	runCommand.Flags().VarP(logLevel, "log-level", "l", "set log level")
	runCommand.Flags().VarP(logFormat, "log-format", "", "set log format")
	runCommand.Flags().IntVar(&shutdownGracePeriod, "shutdown-grace-period", 0, "set the time (in seconds) that the server will wait to gracefully shut down")

	root.AddCommand(runCommand)
}
