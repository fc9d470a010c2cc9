package dispatcher

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the dispatcher's own counters, exposed through Metrics()
// as a prometheus.Collector. This is additive instrumentation layered on
// top of the spec's run-count/kick-count state, not a new protocol
// concept.
type metrics struct {
	passes      atomic.Uint64
	drained     atomic.Uint64
	disconnects atomic.Uint64
}

// Snapshot is a point-in-time read of the dispatcher's counters.
type Snapshot struct {
	RunCount       int32
	KickCount      int32
	Connections    int
	Passes         uint64
	Drained        uint64
	Disconnections uint64
}

// Snapshot reports the current run-count, kick-count, live connection
// count and cumulative pass/drain/disconnect totals.
func (d *Dispatcher) Snapshot() Snapshot {
	return Snapshot{
		RunCount:       d.runCount.Load(),
		KickCount:      d.kickCount.Load(),
		Connections:    d.pool.Len(),
		Passes:         d.m.passes.Load(),
		Drained:        d.m.drained.Load(),
		Disconnections: d.m.disconnects.Load(),
	}
}

var (
	descRunCount = prometheus.NewDesc(
		"tcpcomm_dispatcher_run_count", "Number of workers currently inside Run.", nil, nil)
	descKickCount = prometheus.NewDesc(
		"tcpcomm_dispatcher_kick_count", "Outstanding wake-up posts.", nil, nil)
	descConnections = prometheus.NewDesc(
		"tcpcomm_dispatcher_connections", "Communicators currently held by the pool.", nil, nil)
	descPasses = prometheus.NewDesc(
		"tcpcomm_dispatcher_passes_total", "Processing passes completed.", nil, nil)
	descDrained = prometheus.NewDesc(
		"tcpcomm_dispatcher_drained_total", "Communicators processed across all passes.", nil, nil)
	descDisconnects = prometheus.NewDesc(
		"tcpcomm_dispatcher_disconnects_total", "Communicators erased after a disconnecting Process tick.", nil, nil)
)

// Metrics returns a prometheus.Collector exposing this dispatcher's
// counters, for wiring into a registry alongside the rest of an
// application's metrics.
func (d *Dispatcher) Metrics() prometheus.Collector { return (*collector)(d) }

type collector Dispatcher

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descRunCount
	ch <- descKickCount
	ch <- descConnections
	ch <- descPasses
	ch <- descDrained
	ch <- descDisconnects
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	d := (*Dispatcher)(c)
	snap := d.Snapshot()
	ch <- prometheus.MustNewConstMetric(descRunCount, prometheus.GaugeValue, float64(snap.RunCount))
	ch <- prometheus.MustNewConstMetric(descKickCount, prometheus.GaugeValue, float64(snap.KickCount))
	ch <- prometheus.MustNewConstMetric(descConnections, prometheus.GaugeValue, float64(snap.Connections))
	ch <- prometheus.MustNewConstMetric(descPasses, prometheus.CounterValue, float64(snap.Passes))
	ch <- prometheus.MustNewConstMetric(descDrained, prometheus.CounterValue, float64(snap.Drained))
	ch <- prometheus.MustNewConstMetric(descDisconnects, prometheus.CounterValue, float64(snap.Disconnections))
}
