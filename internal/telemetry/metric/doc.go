// Package metric provides Prometheus metrics for keymesh.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry with command, transaction and client metrics
//   - collector.go: KeyspaceCollector reading live keyspace statistics
//
// Registry implements both engine.Observer and redisserver.ConnObserver
// through method set compatibility, without importing those packages.
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
