// Package telemetry defines the in-process counters the pipeline emits,
// plus a Prometheus-backed implementation.
//
// Grounded on the teacher's direct use of github.com/prometheus/client_golang
// (go.mod requires it at v1.19.1); dxcore wires the same library rather
// than hand-rolling counters, since the teacher never does ambient metrics
// with the standard library alone.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Counters is the narrow set of events the pipeline reports. Every method
// must be safe to call with a nil receiver's Noop implementation and from
// multiple goroutines.
type Counters interface {
	FactCommitted(stageName string)
	FactConflict(stageName string)
	CacheHit(stageName string)
	CacheMiss(stageName string)
	StageSucceeded(stageName string)
	StageFailed(stageName, class string)
}

// Noop discards every event. It is the default when no Counters is wired.
type Noop struct{}

func (Noop) FactCommitted(string)       {}
func (Noop) FactConflict(string)        {}
func (Noop) CacheHit(string)            {}
func (Noop) CacheMiss(string)           {}
func (Noop) StageSucceeded(string)      {}
func (Noop) StageFailed(string, string) {}

// Prometheus reports every event to client_golang counter vectors. Callers
// register it once and pass the same instance into the orchestrator, the
// fact store, and the cache.
type Prometheus struct {
	facts  *prometheus.CounterVec
	cache  *prometheus.CounterVec
	stages *prometheus.CounterVec
}

// NewPrometheus constructs and registers the counter vectors against reg.
// Pass prometheus.DefaultRegisterer for the process-wide default registry.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		facts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dxcore",
			Subsystem: "factstore",
			Name:      "events_total",
			Help:      "Fact store commit and conflict events by stage and outcome.",
		}, []string{"stage", "outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dxcore",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by stage and hit/miss outcome.",
		}, []string{"stage", "outcome"}),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dxcore",
			Subsystem: "orchestrator",
			Name:      "stage_results_total",
			Help:      "Stage executions by stage, outcome, and failure class.",
		}, []string{"stage", "outcome", "class"}),
	}
	reg.MustRegister(p.facts, p.cache, p.stages)
	return p
}

func (p *Prometheus) FactCommitted(stageName string) {
	p.facts.WithLabelValues(stageName, "committed").Inc()
}

func (p *Prometheus) FactConflict(stageName string) {
	p.facts.WithLabelValues(stageName, "conflict").Inc()
}

func (p *Prometheus) CacheHit(stageName string) {
	p.cache.WithLabelValues(stageName, "hit").Inc()
}

func (p *Prometheus) CacheMiss(stageName string) {
	p.cache.WithLabelValues(stageName, "miss").Inc()
}

func (p *Prometheus) StageSucceeded(stageName string) {
	p.stages.WithLabelValues(stageName, "succeeded", "").Inc()
}

func (p *Prometheus) StageFailed(stageName, class string) {
	p.stages.WithLabelValues(stageName, "failed", class).Inc()
}
