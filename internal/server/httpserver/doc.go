// Package httpserver exposes keymesh's operational HTTP endpoint: health
// probes, Prometheus metrics and the /debug views, behind the middleware
// chain defined in middleware.go.
package httpserver
