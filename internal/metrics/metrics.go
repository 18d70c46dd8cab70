// Package metrics holds the Prometheus registries for both daemons. Neither
// daemon's admission logic depends on metrics being scraped; this is pure
// observability layered on top per SPEC_FULL.md's ambient-stack section.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SlotProxy is the metric set exposed by cmd/slotproxy.
type SlotProxy struct {
	Occupancy   prometheus.Gauge
	Admissions  prometheus.Counter
	Rejections  prometheus.Counter
	Evictions   prometheus.Counter
	SelfEvicts  prometheus.Counter
	Responses503 prometheus.Counter
	DialFailures prometheus.Counter
}

// NewSlotProxy registers the SlotProxy metric set against a fresh registry.
func NewSlotProxy() (*SlotProxy, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &SlotProxy{
		Occupancy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "slotproxy_slot_occupancy",
			Help: "Number of slots currently occupied in the slot table.",
		}),
		Admissions: factory.NewCounter(prometheus.CounterOpts{
			Name: "slotproxy_admissions_total",
			Help: "Total number of connections admitted into the slot table.",
		}),
		Rejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "slotproxy_rejections_total",
			Help: "Total number of connections denied admission outright.",
		}),
		Evictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "slotproxy_evictions_total",
			Help: "Total number of slots evicted by a better-scoring admission.",
		}),
		SelfEvicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "slotproxy_self_evictions_total",
			Help: "Total number of slots that evicted themselves after degrading.",
		}),
		Responses503: factory.NewCounter(prometheus.CounterOpts{
			Name: "slotproxy_503_total",
			Help: "Total number of 503 responses emitted for any reason.",
		}),
		DialFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "slotproxy_backend_dial_failures_total",
			Help: "Total number of failed backend dial attempts.",
		}),
	}, reg
}

// WSJF is the metric set exposed by cmd/wsjfsched.
type WSJF struct {
	QueueDepth    prometheus.Gauge
	Enqueued      prometheus.Counter
	Sent          prometheus.Counter
	Requeued      prometheus.Counter
	ReconnectCount prometheus.Counter
}

// NewWSJF registers the WSJF metric set against a fresh registry.
func NewWSJF() (*WSJF, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &WSJF{
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wsjf_queue_depth",
			Help: "Number of records currently queued for the backend.",
		}),
		Enqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "wsjf_enqueued_total",
			Help: "Total number of records enqueued.",
		}),
		Sent: factory.NewCounter(prometheus.CounterOpts{
			Name: "wsjf_sent_total",
			Help: "Total number of records successfully written to the backend.",
		}),
		Requeued: factory.NewCounter(prometheus.CounterOpts{
			Name: "wsjf_requeued_total",
			Help: "Total number of records requeued after a backend write failure.",
		}),
		ReconnectCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "wsjf_backend_reconnects_total",
			Help: "Total number of backend reconnect attempts.",
		}),
	}, reg
}

// Serve starts a blocking HTTP server exposing /metrics for reg. Intended to
// be run in its own goroutine by main().
func Serve(addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return http.ListenAndServe(addr, mux)
}
