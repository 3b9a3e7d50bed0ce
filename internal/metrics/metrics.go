package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	bidsAccepted      *prometheus.CounterVec
	bidsRejected      *prometheus.CounterVec
	walletOperations  *prometheus.CounterVec
	notifyFailures    *prometheus.CounterVec
	socketConnections prometheus.Gauge
}

// New registers every collector on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
		bidsAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auction_bids_accepted_total",
				Help: "Total number of accepted bids",
			},
			[]string{"direction"},
		),
		bidsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auction_bids_rejected_total",
				Help: "Total number of rejected bids by reason",
			},
			[]string{"reason"},
		),
		walletOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_operations_total",
				Help: "Total number of wallet ledger entries written",
			},
			[]string{"type"},
		),
		notifyFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notify_publish_failures_total",
				Help: "Total number of notification events that failed to publish",
			},
			[]string{"event"},
		),
		socketConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "websocket_connections",
				Help: "Number of open websocket connections",
			},
		),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) BidAccepted(direction string) {
	if m == nil {
		return
	}
	m.bidsAccepted.WithLabelValues(direction).Inc()
}

func (m *Metrics) BidRejected(reason string) {
	if m == nil {
		return
	}
	m.bidsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) WalletOperation(kind string) {
	if m == nil {
		return
	}
	m.walletOperations.WithLabelValues(kind).Inc()
}

func (m *Metrics) NotifyFailed(event string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(event).Inc()
}

func (m *Metrics) SocketOpened() {
	if m == nil {
		return
	}
	m.socketConnections.Inc()
}

func (m *Metrics) SocketClosed() {
	if m == nil {
		return
	}
	m.socketConnections.Dec()
}
