// Package metrics exposes a profiler store as Prometheus gauges.
// Values are read from a fresh snapshot on every scrape.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ljiacheng/aleo-std/pkg/profiler"
)

const namespace = "profiler"

// Collector implements prometheus.Collector over a profiler.Store.
type Collector struct {
	store *profiler.Store

	partSeconds *prometheus.Desc
	jobSeconds  *prometheus.Desc
	workSeconds *prometheus.Desc
	partPercent *prometheus.Desc
}

// NewCollector creates a collector reading from s.
func NewCollector(s *profiler.Store) *Collector {
	return &Collector{
		store: s,
		partSeconds: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "part_seconds"),
			"Accumulated time spent in a part",
			[]string{"part"}, nil,
		),
		jobSeconds: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "job_seconds"),
			"Accumulated time spent in a job within its part",
			[]string{"part", "job"}, nil,
		),
		workSeconds: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "work_seconds"),
			"Elapsed time of a work session; running sessions other than DefaultWork are omitted",
			[]string{"work", "ended"}, nil,
		),
		partPercent: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "part_percent"),
			"Share of a work session spent in a part",
			[]string{"work", "part"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.partSeconds
	ch <- c.jobSeconds
	ch <- c.workSeconds
	ch <- c.partPercent
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.store.Snapshot()

	for _, p := range snap.Parts {
		ch <- constGauge(c.partSeconds, p.Total.Seconds(), p.Name)
		for _, j := range p.Jobs {
			ch <- constGauge(c.jobSeconds, j.Total.Seconds(), p.Name, j.Name)
		}
	}

	for _, w := range snap.Works {
		elapsed, err := w.Elapsed(snap.Taken)
		if err != nil || elapsed <= 0 {
			continue
		}
		ended := "false"
		if w.Ended {
			ended = "true"
		}
		ch <- constGauge(c.workSeconds, elapsed.Seconds(), w.Name, ended)
		for _, p := range snap.Parts {
			pct := float64(p.Total) * 100 / float64(elapsed)
			ch <- constGauge(c.partPercent, pct, w.Name, p.Name)
		}
	}
}

// constGauge builds a gauge, or an invalid metric that fails the gather when
// a label value is rejected (names are caller supplied and may not be UTF-8).
func constGauge(desc *prometheus.Desc, v float64, labels ...string) prometheus.Metric {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labels...)
	if err != nil {
		return prometheus.NewInvalidMetric(desc, err)
	}
	return m
}

// Registry returns a registry holding only a collector for s.
func Registry(s *profiler.Store) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(s))
	return reg
}
