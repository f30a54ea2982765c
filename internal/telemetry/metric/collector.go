package metric

import "github.com/prometheus/client_golang/prometheus"

// KeyspaceStats is the read side of the keyspace sampled on each scrape.
type KeyspaceStats interface {
	Len() int
	Blocked() int64
	ExpiredTotal() uint64
}

// KeyspaceCollector exports keyspace statistics at scrape time.
type KeyspaceCollector struct {
	stats KeyspaceStats

	keys    *prometheus.Desc
	blocked *prometheus.Desc
	expired *prometheus.Desc
}

// NewKeyspaceCollector creates a collector reading from stats.
func NewKeyspaceCollector(stats KeyspaceStats) *KeyspaceCollector {
	return &KeyspaceCollector{
		stats: stats,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "keyspace", "keys"),
			"Live keys in the keyspace.",
			nil, nil,
		),
		blocked: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "keyspace", "blocked_clients"),
			"Clients parked in BLPOP or XREAD.",
			nil, nil,
		),
		expired: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "keyspace", "expired_keys_total"),
			"Keys removed by lazy expiry.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *KeyspaceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.blocked
	ch <- c.expired
}

// Collect implements prometheus.Collector.
func (c *KeyspaceCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(c.stats.Len()))
	ch <- prometheus.MustNewConstMetric(c.blocked, prometheus.GaugeValue, float64(c.stats.Blocked()))
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(c.stats.ExpiredTotal()))
}
