// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package server exposes the RPC surface over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wasmrunner/wasmrunner/internal/metrics"
	"github.com/wasmrunner/wasmrunner/log"
	"github.com/wasmrunner/wasmrunner/rpc"
	"github.com/wasmrunner/wasmrunner/server/writer"
)

// Loop runs the server until it is shut down or an unrecoverable
// error occurs.
type Loop func() error

// Server exposes List/Load/Execute over HTTP.
type Server struct {
	Handler http.Handler

	addr    string
	service rpc.Service
	router  *mux.Router
	httpSrv *http.Server
	logger  log.Logger
	metrics metrics.GlobalMetrics
}

// New constructs a Server with no address or service configured.
// Callers must chain WithAddress and WithService before Init.
func New() *Server {
	return &Server{logger: log.Global()}
}

// WithAddress sets the bind address (host:port).
func (s *Server) WithAddress(addr string) *Server {
	s.addr = addr
	return s
}

// WithService wires the service that backs the HTTP routes.
func (s *Server) WithService(svc rpc.Service) *Server {
	s.service = svc
	return s
}

// WithLogger overrides the request-logging logger.
func (s *Server) WithLogger(logger log.Logger) *Server {
	s.logger = logger
	return s
}

// WithMetrics overrides the GlobalMetrics implementation backing the
// /metrics endpoint and per-route instrumentation. Tests can supply a
// fresh instance to avoid colliding with the process-wide Prometheus
// registry.
func (s *Server) WithMetrics(m metrics.GlobalMetrics) *Server {
	s.metrics = m
	return s
}

// Init builds the router and the underlying http.Server. It must be
// called once, after every With* option, before Listeners.
func (s *Server) Init(_ context.Context) (*Server, error) {
	if s.service == nil {
		return nil, errors.New("server: service not configured")
	}
	if s.addr == "" {
		return nil, errors.New("server: address not configured")
	}

	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	s.router = mux.NewRouter()
	s.registerHandler(s.router, "/v1/functions", "GET", "list", s.listFunctions)
	s.registerHandler(s.router, "/v1/functions/{name}", "PUT", "load", s.loadFunction)
	s.registerHandler(s.router, "/v1/functions/{name}/execute", "POST", "execute", s.executeFunction)
	s.metrics.RegisterEndpoints(func(path, method string, handler http.Handler) {
		s.router.Handle(path, handler).Methods(method)
	})

	s.Handler = NewLoggingHandler(s.logger, s.router)

	s.httpSrv = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler,
	}

	return s, nil
}

func (s *Server) registerHandler(router *mux.Router, path, method, label string, h http.HandlerFunc) {
	router.Handle(path, s.metrics.InstrumentHandler(h, label)).Methods(method)
}

// Listeners returns the Loop that serves traffic. There is exactly
// one: wasmrunner binds a single address, unlike the teacher's
// multi-listener (TLS + plaintext + UNIX socket) setup.
func (s *Server) Listeners() ([]Loop, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, err
	}

	return []Loop{func() error {
		tcpLn, ok := ln.(*net.TCPListener)
		if !ok {
			err := s.httpSrv.Serve(ln)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}

		err := s.httpSrv.Serve(tcpKeepAliveListener{tcpLn})
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}}, nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Addr returns the configured bind address.
func (s *Server) Addr() string {
	return s.addr
}

type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	c, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	c.SetKeepAlive(true)
	c.SetKeepAlivePeriod(3 * time.Minute)
	return c, nil
}

func (s *Server) listFunctions(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.service.List(r.Context())
	if err != nil {
		writer.ErrorString(w, http.StatusInternalServerError, codeInternal, err)
		return
	}

	result := make([]functionV1, 0, len(statuses))
	for _, st := range statuses {
		result = append(result, functionV1{
			Name:              st.Name,
			State:             st.State,
			Successes:         st.Successes,
			Failures:          st.Failures,
			TotalMessages:     st.TotalMessages,
			FailRatePerMinute: st.FailRatePerMinute,
		})
	}

	writer.JSON(w, http.StatusOK, listResponseV1{Result: result}, true)
}

func (s *Server) loadFunction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	err := s.service.Load(r.Context(), name, r.Body)
	if err == nil {
		writer.Bytes(w, http.StatusNoContent, nil)
		return
	}

	writer.ErrorAuto(w, err)
}

func (s *Server) executeFunction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writer.ErrorString(w, http.StatusBadRequest, codeInvalidParameter, err)
		return
	}

	out, err := s.service.Execute(r.Context(), name, body)
	if err == nil {
		w.Header().Set("Content-Type", "application/octet-stream")
		writer.Bytes(w, http.StatusOK, out)
		return
	}

	writer.ErrorAuto(w, err)
}
