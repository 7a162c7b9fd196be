package pipeline

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vmunix/iptvstrm/pkg/title"
)

const namespace = "iptvstrm"

// Metrics exports run results in the Prometheus text format, for the node
// exporter textfile collector.
type Metrics struct {
	reg        *prometheus.Registry
	files      *prometheus.GaugeVec
	entries    prometheus.Gauge
	enriched   prometheus.Gauge
	showsAdded prometheus.Gauge
	duration   prometheus.Gauge
	success    prometheus.Gauge
	lastRun    prometheus.Gauge
}

// NewMetrics creates the gauges on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		files: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "files",
			Help:      "Library files handled in the last run by kind and result.",
		}, []string{"kind", "result"}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_entries",
			Help:      "Entries parsed from the catalog in the last run.",
		}),
		enriched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "enriched_entries",
			Help:      "Entries matched to catalog metadata in the last run.",
		}),
		showsAdded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "shows_added",
			Help:      "Show folders created in the last run.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run completed, 0 if it failed.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	m.reg.MustRegister(m.files, m.entries, m.enriched, m.showsAdded, m.duration, m.success, m.lastRun)
	return m
}

// Registry returns the registry holding the run gauges.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Observe records a run. err is the run error, nil on success.
func (m *Metrics) Observe(s *Summary, err error) {
	for _, kind := range title.Kinds {
		c := s.Kinds[kind]
		k := string(kind)
		m.files.WithLabelValues(k, "created").Set(float64(c.Created))
		m.files.WithLabelValues(k, "skipped").Set(float64(c.Skipped))
		m.files.WithLabelValues(k, "deleted").Set(float64(c.Deleted))
		m.files.WithLabelValues(k, "failed").Set(float64(c.Failed))
	}
	m.entries.Set(float64(s.Entries))
	m.enriched.Set(float64(s.Enriched))
	m.showsAdded.Set(float64(s.ShowsAdded))
	m.duration.Set(s.Duration.Seconds())
	if err != nil {
		m.success.Set(0)
	} else {
		m.success.Set(1)
	}
	m.lastRun.Set(float64(time.Now().Unix()))
}

// WriteTextfile writes the gauges to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
