// Package metrics exposes the engine's runtime counters as Prometheus
// metrics: packets produced per node, cache hit/miss, and classifier
// decisions per label (SPEC_FULL.md's ambient observability surface;
// spec.md §1 scopes a full tracing/monitoring layer out, but basic
// counters are carried regardless, the same way the teacher carries
// stats for every build).
/*
 * Grounded on the aistore project's stats package: a small set of
 * named counters/gauges registered once at start-up and updated from
 * the hot path without blocking it. Here the actual exporter is
 * github.com/prometheus/client_golang instead of aistore's StatsD
 * client, since that is the library this module's dependency set
 * carries for this purpose.
 */
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns every counter this package exports and the
// prometheus.Registerer they are registered against. The zero value is
// not usable; construct one with New.
type Registry struct {
	reg *prometheus.Registry

	packetsProduced *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	decisions       *prometheus.CounterVec
}

// New builds a Registry with every counter pre-registered. Passing the
// same *Registry to more than one component is the intended use: every
// node, cache, and classifier in one running engine shares it.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		packetsProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flow",
			Name:      "packets_produced_total",
			Help:      "Packets produced by a node, including EOS/OOD control packets.",
		}, []string{"node"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flow",
			Name:      "cache_hits_total",
			Help:      "Content-addressed cache reads served from an existing entry.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flow",
			Name:      "cache_misses_total",
			Help:      "Content-addressed cache reads that found no entry.",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flow",
			Name:      "classifier_decisions_total",
			Help:      "Bayes classifier decisions, by decided label.",
		}, []string{"label"}),
	}
	reg.MustRegister(r.packetsProduced, r.cacheHits, r.cacheMisses, r.decisions)
	return r
}

// PacketProduced increments the per-node packet counter. Safe to call
// on a nil *Registry (a component wired with no metrics configured);
// every method on Registry is nil-receiver safe so callers never need
// an `if metrics != nil` guard of their own.
func (r *Registry) PacketProduced(nodeName string) {
	if r == nil {
		return
	}
	r.packetsProduced.WithLabelValues(nodeName).Inc()
}

func (r *Registry) CacheHit() {
	if r == nil {
		return
	}
	r.cacheHits.Inc()
}

func (r *Registry) CacheMiss() {
	if r == nil {
		return
	}
	r.cacheMisses.Inc()
}

func (r *Registry) Decision(label string) {
	if r == nil {
		return
	}
	r.decisions.WithLabelValues(label).Inc()
}

// Handler returns the http.Handler a driver mounts at /metrics.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
