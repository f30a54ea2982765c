package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "keymesh"

// Command results used as label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Registry holds all application metrics on a private Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Transaction metrics
	TransactionsTotal *prometheus.CounterVec
	TransactionSize   prometheus.Histogram

	// Client metrics
	ClientsConnected prometheus.Gauge
	ClientsTotal     prometheus.Counter
	ClientsRejected  *prometheus.CounterVec
}

// NewRegistry creates a registry with the keymesh metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Executed commands by name and result.",
			},
			[]string{"command", "result"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Command execution time, including time spent blocked.",
				Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.1, 1, 10},
			},
			[]string{"command"},
		),
		TransactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Finished transactions by outcome (exec, discard).",
			},
			[]string{"outcome"},
		),
		TransactionSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_queued_commands",
				Help:      "Number of commands queued per finished transaction.",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 500},
			},
		),
		ClientsConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "clients_connected",
				Help:      "Currently connected RESP clients.",
			},
		),
		ClientsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "clients_accepted_total",
				Help:      "RESP connections accepted since start.",
			},
		),
		ClientsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "clients_rejected_total",
				Help:      "RESP connections rejected by reason.",
			},
			[]string{"reason"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.CommandsTotal,
		r.CommandDuration,
		r.TransactionsTotal,
		r.TransactionSize,
		r.ClientsConnected,
		r.ClientsTotal,
		r.ClientsRejected,
	)
	return r
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Register adds an extra collector, such as a KeyspaceCollector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// CommandExecuted records one executed command.
func (r *Registry) CommandExecuted(name string, elapsed time.Duration, failed bool) {
	result := ResultOK
	if failed {
		result = ResultError
	}
	r.CommandsTotal.WithLabelValues(name, result).Inc()
	r.CommandDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// TransactionFinished records the end of a MULTI block.
func (r *Registry) TransactionFinished(queued int, discarded bool) {
	outcome := "exec"
	if discarded {
		outcome = "discard"
	}
	r.TransactionsTotal.WithLabelValues(outcome).Inc()
	r.TransactionSize.Observe(float64(queued))
}

// ClientConnected records an accepted connection.
func (r *Registry) ClientConnected() {
	r.ClientsConnected.Inc()
	r.ClientsTotal.Inc()
}

// ClientDisconnected records a closed connection.
func (r *Registry) ClientDisconnected() {
	r.ClientsConnected.Dec()
}

// ClientRejected records a refused connection.
func (r *Registry) ClientRejected(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	r.ClientsRejected.WithLabelValues(reason).Inc()
}
