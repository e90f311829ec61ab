// Package metrics owns the process Prometheus registry. All recording
// methods are safe on a nil *Registry so tests and the admin CLI can skip
// metrics entirely.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tipkeeper"

// Outcome label values shared by the counters.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeReverted = "reverted"
	OutcomeNoEvent  = "no_event"
	OutcomeSkipped  = "skipped"
)

type Registry struct {
	reg *prometheus.Registry

	custodyOps     *prometheus.CounterVec
	transfers      *prometheus.CounterVec
	relayed        *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	walletsCreated prometheus.Counter
	relayCursor    prometheus.Gauge
	httpRequests   *prometheus.CounterVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		custodyOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "custody",
			Name:      "operations_total",
			Help:      "Envelope custody operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Tip transfers by final outcome.",
		}, []string{"outcome"}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "events_total",
			Help:      "Transfer events handed to the outbound relay.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_notifications_total",
			Help:      "Address tracking webhook calls.",
		}, []string{"outcome"}),
		walletsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallets_created_total",
			Help:      "Wallets generated and persisted.",
		}),
		relayCursor: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "cursor_block",
			Help:      "Block number of the last acknowledged relayed event.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "REST requests by route template and status code.",
		}, []string{"method", "route", "code"}),
	}

	r.reg.MustRegister(
		r.custodyOps,
		r.transfers,
		r.relayed,
		r.notifications,
		r.walletsCreated,
		r.relayCursor,
		r.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Registry) CustodyOp(op, outcome string) {
	if r == nil {
		return
	}
	r.custodyOps.WithLabelValues(op, outcome).Inc()
}

func (r *Registry) Transfer(outcome string) {
	if r == nil {
		return
	}
	r.transfers.WithLabelValues(outcome).Inc()
}

func (r *Registry) Relayed(outcome string) {
	if r == nil {
		return
	}
	r.relayed.WithLabelValues(outcome).Inc()
}

func (r *Registry) Notified(outcome string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(outcome).Inc()
}

func (r *Registry) WalletCreated() {
	if r == nil {
		return
	}
	r.walletsCreated.Inc()
}

func (r *Registry) RelayCursor(block uint64) {
	if r == nil {
		return
	}
	r.relayCursor.Set(float64(block))
}

// HTTPRequest counts one served request. route is the registered path
// template, not the raw URL.
func (r *Registry) HTTPRequest(method, route string, code int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// Gatherer exposes the registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
