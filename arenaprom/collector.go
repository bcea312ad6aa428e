// Package arenaprom exports arena statistics as Prometheus metrics.
package arenaprom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pavanmanishd/pagearena"
)

// StatsSource is anything that reports arena statistics. A plain
// *pagearena.Arena is not safe to read while another goroutine allocates;
// scrape a *pagearena.Locked instead.
type StatsSource interface {
	Stats() pagearena.Stats
}

// Collector is a prometheus.Collector over a set of named arenas.
type Collector struct {
	sources map[string]StatsSource

	bytesRequested *prometheus.Desc
	bytesAllocated *prometheus.Desc
	pages          *prometheus.Desc
	orphans        *prometheus.Desc
	requests       *prometheus.Desc
	waste          *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector reporting each source under its map key
// as the "arena" label. namespace prefixes every metric name.
func NewCollector(namespace string, sources map[string]StatsSource) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "arena", name), help, []string{"arena"}, nil)
	}
	return &Collector{
		sources:        sources,
		bytesRequested: desc("requested_bytes_total", "Bytes requested by Allocate calls."),
		bytesAllocated: desc("allocated_bytes_total", "Usable page bytes acquired from the page source."),
		pages:          desc("pages_total", "Pages created, orphan pages included."),
		orphans:        desc("orphan_pages_total", "Pages dedicated to a single oversized request."),
		requests:       desc("requests_total", "Successful Allocate calls."),
		waste:          desc("waste_ratio", "Fraction of allocated page bytes never requested."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytesRequested
	ch <- c.bytesAllocated
	ch <- c.pages
	ch <- c.orphans
	ch <- c.requests
	ch <- c.waste
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, src := range c.sources {
		s := src.Stats()
		ch <- prometheus.MustNewConstMetric(c.bytesRequested, prometheus.CounterValue, float64(s.BytesRequested), name)
		ch <- prometheus.MustNewConstMetric(c.bytesAllocated, prometheus.CounterValue, float64(s.BytesAllocated), name)
		ch <- prometheus.MustNewConstMetric(c.pages, prometheus.CounterValue, float64(s.Pages), name)
		ch <- prometheus.MustNewConstMetric(c.orphans, prometheus.CounterValue, float64(s.Orphans), name)
		ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(s.Requests), name)
		ch <- prometheus.MustNewConstMetric(c.waste, prometheus.GaugeValue, s.Waste(), name)
	}
}
