package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Namespace = "grievance_portal"
	Subsystem = "api"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterGrievanceMutations *prometheus.CounterVec
	CounterLogins             *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
	HistStoreOpDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

func NewTestManager() *Manager {
	return NewManager(Namespace, "test_server", prometheus.NewRegistry())
}

// NewDefaultManager registers runtime collectors next to the application
// metrics on a fresh registry.
func NewDefaultManager() *Manager {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewManager(Namespace, Subsystem, reg)
}

func NewManager(namespace, subsystem string, reg *prometheus.Registry) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterGrievanceMutations := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "grievance_mutations",
		Help:      "The total number of grievance writes by operation",
	}, []string{"op"})
	counterLogins := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "logins",
		Help:      "Admin login attempts by result",
	}, []string{"result"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})

	histReqDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		Name:      "request_duration_seconds",
		Help:      "Total duration of requests in seconds",
	})
	histStoreOpDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		Name:      "store_op_duration_seconds",
		Help:      "Duration of store adapter calls in seconds",
	}, []string{"op", "result"})

	return &Manager{
		CounterRequests:           counterRequests,
		CounterGrievanceMutations: counterGrievanceMutations,
		CounterLogins:             counterLogins,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		GaugeRequests:             gaugeRequests,
		HistRequestDuration:       histReqDuration,
		HistStoreOpDuration:       histStoreOpDuration,
		registry:                  reg,
	}
}

func (m *Manager) IncGrievanceMutation(op string) {
	m.CounterGrievanceMutations.WithLabelValues(op).Inc()
}

func (m *Manager) IncLogin(result string) {
	m.CounterLogins.WithLabelValues(result).Inc()
}

func (m *Manager) ObserveStoreOp(op string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.HistStoreOpDuration.WithLabelValues(op, result).Observe(seconds)
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
