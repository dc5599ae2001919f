package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GlobalMetricsRegistry is the Prometheus metrics registry singleton.
// It is a var initializer, not an init func, so it is guaranteed set
// before any other file's init runs and registers collectors against it.
var GlobalMetricsRegistry = newRegistry()

func newRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(prometheus.NewGoCollector())
	return r
}

// ResetGlobalMetricsRegistry resets GlobalMetricsRegistry to it's default value.
// This is needed by the unit tests that create many server instances and would try to register duplicate collectors in the registry
func ResetGlobalMetricsRegistry() {
	GlobalMetricsRegistry = newRegistry()
}

var requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name: "wasmrunner_http_request_duration_seconds",
	Help: "HTTP request duration by route.",
}, []string{"handler"})

func init() {
	GlobalMetricsRegistry.MustRegister(requestDuration)
}

type prometheusGlobalMetrics struct {
	duration *prometheus.HistogramVec
}

// New returns the Prometheus-backed GlobalMetrics implementation,
// exposing GlobalMetricsRegistry over HTTP and instrumenting handlers
// with request duration histograms labeled by route.
func New() GlobalMetrics {
	return &prometheusGlobalMetrics{duration: requestDuration}
}

func (p *prometheusGlobalMetrics) RegisterEndpoints(registrar func(path, method string, handler http.Handler)) {
	registrar("/metrics", http.MethodGet, promhttp.HandlerFor(GlobalMetricsRegistry, promhttp.HandlerOpts{}))
}

func (p *prometheusGlobalMetrics) InstrumentHandler(handler http.Handler, label string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		handler.ServeHTTP(w, r)
		p.duration.WithLabelValues(label).Observe(time.Since(t0).Seconds())
	})
}

func (p *prometheusGlobalMetrics) Gather() (interface{}, error) {
	return GlobalMetricsRegistry.Gather()
}

func (p *prometheusGlobalMetrics) IncrementSuccess(name string) {
	FunctionCounters.Successes.WithLabelValues(name).Inc()
	FunctionCounters.TotalMessages.WithLabelValues(name).Inc()
}

func (p *prometheusGlobalMetrics) IncrementFailure(name string) {
	FunctionCounters.Failures.WithLabelValues(name).Inc()
	FunctionCounters.TotalMessages.WithLabelValues(name).Inc()
}

func (p *prometheusGlobalMetrics) Name() string {
	return "prometheus"
}
