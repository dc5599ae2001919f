// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package runtime wires together the scanner, compiler, controller,
// executor, and HTTP server into a single running instance, the way
// OPA's runtime.Runtime wires the store, plugin manager, and server.
package runtime

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/wasmrunner/wasmrunner/internal/compiler"
	"github.com/wasmrunner/wasmrunner/internal/controller"
	"github.com/wasmrunner/wasmrunner/internal/deploy"
	"github.com/wasmrunner/wasmrunner/internal/executor"
	"github.com/wasmrunner/wasmrunner/internal/metrics"
	"github.com/wasmrunner/wasmrunner/internal/scanner"
	"github.com/wasmrunner/wasmrunner/log"
	"github.com/wasmrunner/wasmrunner/rpc"
	"github.com/wasmrunner/wasmrunner/server"
)

// Params stores the configuration for a wasmrunner instance.
type Params struct {
	// ID is a globally unique identifier for this instance. If empty,
	// the runtime generates one.
	ID string

	// Addr is the HTTP listen address.
	Addr string

	// Dir is the watched directory reconciled against.
	Dir string

	// TickInterval is the reconciler's poll interval. A filesystem
	// event may wake the reconciler sooner, but polling remains the
	// source of truth.
	TickInterval time.Duration

	// CacheDir is created by NewRuntime. It is not passed to the
	// compiler, whose wasmtime module cache stays in wasmtime's
	// default location.
	CacheDir string

	// Logging configures the logging behaviour.
	Logging LoggingConfig

	// GracefulShutdownPeriod is the time (in seconds) Serve waits for
	// the HTTP server to shut down gracefully.
	GracefulShutdownPeriod int
}

// LoggingConfig stores the configuration for wasmrunner's logging
// behaviour.
type LoggingConfig struct {
	Level  string
	Format string
}

// NewParams returns a new Params object with spec-given defaults.
func NewParams() Params {
	return Params{
		Dir:          ".",
		TickInterval: time.Second,
		CacheDir:     ".wasmrunner-cache",
		Logging:      LoggingConfig{Level: "info", Format: "json"},
	}
}

// Runtime represents a single wasmrunner instance.
type Runtime struct {
	Params Params

	ctrl     *controller.Controller
	notifier *scanner.Notifier
	server   *server.Server

	tickc chan struct{}
	done  chan struct{}
}

// NewRuntime returns a new Runtime initialized with params. It builds
// the compiler, controller, deploy writer, and executor, and performs
// one synchronous tick so the watched directory's existing contents
// are reflected before Serve starts accepting traffic.
func NewRuntime(ctx context.Context, params Params) (*Runtime, error) {
	if params.ID == "" {
		params.ID = uuid.NewString()
	}

	if err := os.MkdirAll(params.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("runtime: create watched dir: %w", err)
	}
	if err := os.MkdirAll(params.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("runtime: create cache dir: %w", err)
	}

	c, err := compiler.New()
	if err != nil {
		return nil, fmt.Errorf("runtime: compiler: %w", err)
	}

	sc := scanner.New()
	ctrl := controller.New(params.Dir, sc, c)

	if err := ctrl.Tick(ctx); err != nil {
		log.WithField("err", err).Warn("initial tick reported errors")
	}

	w := deploy.New(params.Dir)

	ex, err := executor.New()
	if err != nil {
		return nil, fmt.Errorf("runtime: executor: %w", err)
	}

	svc := rpc.NewService(ctrl, w, ex, metrics.New())

	srv, err := server.New().
		WithAddress(params.Addr).
		WithService(svc).
		WithLogger(log.Global()).
		Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("runtime: server: %w", err)
	}

	return &Runtime{
		Params: params,
		ctrl:   ctrl,
		server: srv,
		tickc:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}, nil
}

// Serve starts the reconciler loop and the HTTP server, and blocks
// until either: an error occurs, the context is canceled, or a
// SIGINT/SIGTERM signal is received.
func (rt *Runtime) Serve(ctx context.Context) error {
	setupLogging(rt.Params.Logging)

	log.WithFields(log.Fields{
		"addr": rt.Params.Addr,
		"dir":  rt.Params.Dir,
	}).Info("starting wasmrunner")

	notifier, err := scanner.Watch(rt.Params.Dir, rt.hint)
	if err != nil {
		log.WithField("err", err).Warn("unable to watch directory, falling back to polling only")
	} else {
		rt.notifier = notifier
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go rt.reconcileLoop(ctx)

	loops, err := rt.server.Listeners()
	if err != nil {
		return fmt.Errorf("runtime: listeners: %w", err)
	}

	errc := make(chan error, len(loops))
	for _, loop := range loops {
		go func(l server.Loop) {
			errc <- l()
		}(loop)
	}

	signalc := make(chan os.Signal, 1)
	signal.Notify(signalc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case <-signalc:
	case err := <-errc:
		if err != nil {
			log.WithField("err", err).Error("listener failed")
		}
	}

	return rt.shutdown()
}

func (rt *Runtime) reconcileLoop(ctx context.Context) {
	defer close(rt.done)

	ticker := time.NewTicker(rt.Params.TickInterval)
	defer ticker.Stop()

	tick := func() {
		if err := rt.ctrl.Tick(ctx); err != nil {
			log.WithField("err", err).Error("tick failed")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		case <-rt.tickc:
			tick()
		}
	}
}

// hint wakes the reconciler early. It never blocks: if a tick is
// already pending, the hint is dropped, since the next tick will
// observe the same directory state anyway.
func (rt *Runtime) hint() {
	select {
	case rt.tickc <- struct{}{}:
	default:
	}
}

func (rt *Runtime) shutdown() error {
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(rt.Params.GracefulShutdownPeriod)*time.Second)
	defer cancel()

	if rt.notifier != nil {
		if err := rt.notifier.Close(); err != nil {
			log.WithField("err", err).Warn("error closing directory watch")
		}
	}

	if err := rt.server.Shutdown(ctx); err != nil {
		log.WithField("err", err).Error("failed to shut down server gracefully")
		return err
	}

	<-rt.done
	log.Info("shutdown complete")
	return nil
}

func setupLogging(config LoggingConfig) {
	switch config.Format {
	case "json":
		log.SetJSONFormatter()
	case "text":
		log.SetTextFormatter()
	}

	if config.Level != "" {
		if err := log.SetLevel(config.Level); err != nil {
			log.WithField("err", err).Error("unable to parse log level")
		}
	}
}
