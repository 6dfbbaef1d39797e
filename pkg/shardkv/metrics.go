package shardkv

// metrics.go is a thin abstraction over Prometheus so shardkv can be used
// with or without metrics. When the caller passes a *prometheus.Registry via
// WithMetrics, labelled per-shard counters and a size gauge are registered;
// otherwise a no-op sink is used and the hot path never pays for a metric
// update.
//
// ┌───────────────────────────┬──────┬────────┐
// │ Metric                    │ Type │ Labels │
// ├───────────────────────────┼──────┼────────┤
// │ shardkv_hits_total        │ Ctr  │ shard  │
// │ shardkv_misses_total      │ Ctr  │ shard  │
// │ shardkv_sets_total        │ Ctr  │ shard  │
// │ shardkv_deletes_total     │ Ctr  │ shard  │
// │ shardkv_resizes_total     │ Ctr  │ shard  │
// │ shardkv_shard_size        │ Gge  │ shard  │
// └───────────────────────────┴──────┴────────┘
//
// © 2025 shardkv authors. MIT License.

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSink is the internal interface both Store and shard code against;
// Prometheus is never a hard dependency of the hot path.
type metricsSink interface {
	incHit(shard int)
	incMiss(shard int)
	incSet(shard int)
	incDelete(shard int)
	incResize(shard int)
	setSize(shard int, value int64)
}

type noopMetrics struct{}

func (noopMetrics) incHit(int)         {}
func (noopMetrics) incMiss(int)        {}
func (noopMetrics) incSet(int)         {}
func (noopMetrics) incDelete(int)      {}
func (noopMetrics) incResize(int)      {}
func (noopMetrics) setSize(int, int64) {}

type promMetrics struct {
	hits    *prometheus.CounterVec
	misses  *prometheus.CounterVec
	sets    *prometheus.CounterVec
	deletes *prometheus.CounterVec
	resizes *prometheus.CounterVec
	size    *prometheus.GaugeVec

	// sizeMirror keeps an atomic per-shard copy of the last value written
	// to the size gauge.
	sizeMirror []atomic.Int64
}

func newPromMetrics(shardCount int, reg *prometheus.Registry) *promMetrics {
	label := []string{"shard"}

	pm := &promMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardkv", Name: "hits_total", Help: "Number of Get/GetRO hits.",
		}, label),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardkv", Name: "misses_total", Help: "Number of Get/GetRO misses.",
		}, label),
		sets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardkv", Name: "sets_total", Help: "Number of Set calls.",
		}, label),
		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardkv", Name: "deletes_total", Help: "Number of entries tombstoned via Store.Del.",
		}, label),
		resizes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardkv", Name: "resizes_total", Help: "Number of shard bucket-array resizes.",
		}, label),
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "shardkv", Name: "shard_size", Help: "Current bucket-array length per shard.",
		}, label),
		sizeMirror: make([]atomic.Int64, shardCount),
	}

	reg.MustRegister(pm.hits, pm.misses, pm.sets, pm.deletes, pm.resizes, pm.size)
	return pm
}

func (m *promMetrics) incHit(shard int)    { m.hits.WithLabelValues(strconv.Itoa(shard)).Inc() }
func (m *promMetrics) incMiss(shard int)   { m.misses.WithLabelValues(strconv.Itoa(shard)).Inc() }
func (m *promMetrics) incSet(shard int)    { m.sets.WithLabelValues(strconv.Itoa(shard)).Inc() }
func (m *promMetrics) incDelete(shard int) { m.deletes.WithLabelValues(strconv.Itoa(shard)).Inc() }
func (m *promMetrics) incResize(shard int) { m.resizes.WithLabelValues(strconv.Itoa(shard)).Inc() }
func (m *promMetrics) setSize(shard int, value int64) {
	m.sizeMirror[shard].Store(value)
	m.size.WithLabelValues(strconv.Itoa(shard)).Set(float64(value))
}

// newMetricsSink picks the implementation: noop if reg is nil, Prometheus
// otherwise.
func newMetricsSink(shardCount int, reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(shardCount, reg)
}
