package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FunctionCounters are registered against GlobalMetricsRegistry at
// startup and incremented by IncrementSuccess/IncrementFailure on
// every rpc.service.Execute call that reaches the executor (a call for
// a name that is not deployed is not counted). FunctionStatus.Successes/Failures/
// TotalMessages/FailRatePerMinute in the List response are still
// always zero: nothing reads these counters back per-function yet.
var FunctionCounters = struct {
	Successes     *prometheus.CounterVec
	Failures      *prometheus.CounterVec
	TotalMessages *prometheus.CounterVec
}{
	Successes: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wasmrunner_function_successes_total",
		Help: "Successful invocations per function.",
	}, []string{"function"}),
	Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wasmrunner_function_failures_total",
		Help: "Failed invocations per function.",
	}, []string{"function"}),
	TotalMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wasmrunner_function_messages_total",
		Help: "Total invocations per function.",
	}, []string{"function"}),
}

func init() {
	GlobalMetricsRegistry.MustRegister(
		FunctionCounters.Successes,
		FunctionCounters.Failures,
		FunctionCounters.TotalMessages,
	)
}
