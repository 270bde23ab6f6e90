package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports a ParserCache's counters as Prometheus metrics.
type Collector struct {
	cache *ParserCache

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	entries   *prometheus.Desc
	bytes     *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector reading from c. Register it with a
// prometheus.Registerer.
func NewCollector(c *ParserCache) *Collector {
	return &Collector{
		cache:     c,
		hits:      prometheus.NewDesc("marco_parser_cache_hits_total", "Parser cache lookups served from the cache.", nil, nil),
		misses:    prometheus.NewDesc("marco_parser_cache_misses_total", "Parser cache lookups that required a parse.", nil, nil),
		evictions: prometheus.NewDesc("marco_parser_cache_evictions_total", "Documents evicted from the parser cache.", nil, nil),
		entries:   prometheus.NewDesc("marco_parser_cache_entries", "Documents currently held by the parser cache.", nil, nil),
		bytes:     prometheus.NewDesc("marco_parser_cache_bytes", "Source and HTML bytes currently held by the parser cache.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.entries
	ch <- c.bytes
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.cache.Stats()
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions))
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Entries))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(s.Bytes))
}
