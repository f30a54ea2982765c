// Package handler implements the keymesh HTTP endpoints: liveness and
// readiness probes, the Prometheus scrape target and the /debug/* admin
// views. Every JSON body uses the Response envelope.
package handler
