// Package metrics exposes build and analysis counters over Prometheus.
// Collection is observational only; nothing in the analysis kernel reads
// it back, so determinism is unaffected.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and updates the kernel's metrics on a private
// registry, so embedding applications keep their default registry clean.
type Collector struct {
	registry *prometheus.Registry

	filesIngested  prometheus.Counter
	parseDuration  prometheus.Histogram
	buildDuration  prometheus.Histogram
	cpgNodes       prometheus.Gauge
	cpgEdges       prometheus.Gauge
	queriesTotal   prometheus.Counter
	tasksExecuted  prometheus.Counter
	incompleteRuns *prometheus.CounterVec
}

// NewCollector creates a collector with all metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		filesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codeprism_files_ingested_total",
			Help: "Number of source files ingested.",
		}),
		parseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "codeprism_parse_duration_seconds",
			Help:    "Time spent parsing a single file.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "codeprism_build_duration_seconds",
			Help:    "Time spent building a full CPG epoch.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		cpgNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "codeprism_cpg_nodes",
			Help: "Node count of the most recent CPG.",
		}),
		cpgEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "codeprism_cpg_edges",
			Help: "Edge count of the most recent CPG.",
		}),
		queriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codeprism_queries_total",
			Help: "Number of query plans executed.",
		}),
		tasksExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codeprism_tasks_executed_total",
			Help: "Number of plan tasks executed.",
		}),
		incompleteRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeprism_incomplete_analyses_total",
			Help: "Analyses that hit a structural bound, by analysis.",
		}, []string{"analysis"}),
	}
	c.registry.MustRegister(
		c.filesIngested, c.parseDuration, c.buildDuration,
		c.cpgNodes, c.cpgEdges, c.queriesTotal, c.tasksExecuted,
		c.incompleteRuns,
	)
	return c
}

// FileIngested records one ingested file.
func (c *Collector) FileIngested() {
	c.filesIngested.Inc()
}

// ObserveParse records a single file parse duration in seconds.
func (c *Collector) ObserveParse(seconds float64) {
	c.parseDuration.Observe(seconds)
}

// ObserveBuild records a full epoch build duration in seconds.
func (c *Collector) ObserveBuild(seconds float64) {
	c.buildDuration.Observe(seconds)
}

// SetGraphSize records the node and edge counts of the latest CPG.
func (c *Collector) SetGraphSize(nodes, edges int) {
	c.cpgNodes.Set(float64(nodes))
	c.cpgEdges.Set(float64(edges))
}

// QueryExecuted records one executed plan with its task count.
func (c *Collector) QueryExecuted(tasks int) {
	c.queriesTotal.Inc()
	c.tasksExecuted.Add(float64(tasks))
}

// AnalysisIncomplete records an analysis that hit a structural bound.
func (c *Collector) AnalysisIncomplete(analysis string) {
	c.incompleteRuns.WithLabelValues(analysis).Inc()
}

// Handler returns an HTTP handler serving the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and embedding.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
