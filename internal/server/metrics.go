package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace of every exported metric.
const metricsNamespace = "fsguard"

// Prometheus instruments for the daemon.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	sessionsActive  prometheus.Gauge
	sessionsTotal   prometheus.Counter
	commandsTotal   *prometheus.CounterVec
	bufferOverflows prometheus.Counter
	quarantined     prometheus.Counter
}

// Creates the daemon metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently running",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_total",
			Help:      "Total number of sessions started",
		}),
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_total",
			Help:      "Total number of requests answered, by command and status",
		}, []string{"command", "status"}),
		bufferOverflows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "buffer_overflows_total",
			Help:      "Total number of receive buffers discarded for exceeding the limit",
		}),
		quarantined: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "quarantined_files_total",
			Help:      "Total number of files moved into quarantine",
		}),
	}
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.sessionsTotal.Inc()
	m.sessionsActive.Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

// Counts an answered request. Unregistered names share the "unknown" label.
func (m *Metrics) commandAnswered(command string, known, status bool) {
	if m == nil {
		return
	}
	if !known {
		command = "unknown"
	}
	m.commandsTotal.WithLabelValues(command, strconv.FormatBool(status)).Inc()
}

func (m *Metrics) bufferOverflow() {
	if m == nil {
		return
	}
	m.bufferOverflows.Inc()
}

func (m *Metrics) fileQuarantined() {
	if m == nil {
		return
	}
	m.quarantined.Inc()
}

// Returns the HTTP handler for the metrics endpoint.
//
// Serves the Prometheus exposition format on GET /metrics and a liveness
// probe on GET /healthz.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Get("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return r
}
