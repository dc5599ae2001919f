package rpc

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/wasmrunner/wasmrunner/internal/controller"
	"github.com/wasmrunner/wasmrunner/internal/deploy"
	"github.com/wasmrunner/wasmrunner/internal/executor"
	"github.com/wasmrunner/wasmrunner/internal/metrics"
)

// service implements Service over a Controller, deploy Writer, and
// Executor wired together by the runtime.
type service struct {
	ctrl     *controller.Controller
	writer   *deploy.Writer
	executor *executor.Executor
	metrics  metrics.GlobalMetrics
}

// NewService wires a Controller, deploy Writer, Executor, and
// GlobalMetrics into a Service. m may be nil, in which case Execute
// skips counting.
func NewService(ctrl *controller.Controller, w *deploy.Writer, ex *executor.Executor, m metrics.GlobalMetrics) Service {
	return &service{ctrl: ctrl, writer: w, executor: ex, metrics: m}
}

func (s *service) List(_ context.Context) ([]FunctionStatus, error) {
	statuses := s.ctrl.List()

	out := make([]FunctionStatus, 0, len(statuses))
	for _, st := range statuses {
		if st.State != controller.Deployed {
			continue
		}
		out = append(out, FunctionStatus{Name: st.Name, State: st.State.String()})
	}
	return out, nil
}

// Load streams the upload to disk, then runs a reconciliation tick
// before returning so the caller observes the deploy (or its compile
// error) synchronously, per the ordering guarantee on Load.
func (s *service) Load(ctx context.Context, name string, r io.Reader) error {
	if _, err := s.writer.Write(ctx, name, r); err != nil {
		return errors.Wrapf(err, "write %q", name)
	}
	if err := s.ctrl.Tick(ctx); err != nil {
		return errors.Wrap(err, "reconcile")
	}
	if err := s.ctrl.LastError(name); err != nil {
		return errors.Wrapf(err, "compile %q", name)
	}
	return nil
}

func (s *service) Execute(ctx context.Context, name string, body []byte) ([]byte, error) {
	artifact, ok := s.ctrl.Snapshot(name)
	if !ok {
		return nil, ErrNotFound
	}
	out, err := s.executor.Execute(ctx, artifact, body)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementFailure(name)
		}
		return nil, errors.Wrapf(err, "execute %q", name)
	}
	if s.metrics != nil {
		s.metrics.IncrementSuccess(name)
	}
	return out, nil
}
