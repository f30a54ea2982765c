// Command keymesh-server runs the keymesh key-value server.
//
// It serves the RESP protocol on TCP (and optionally a unix socket) and an
// HTTP endpoint with health probes, Prometheus metrics and debug views.
//
// Usage:
//
//	keymesh-server [--config keymesh.yaml] [--redis-addr host:port] [--http-addr host:port] [--log-level level]
//
// Configuration priority is flags, then KEYMESH_* environment variables
// (optionally seeded from .env files), then the YAML file, then defaults.
// Editing the file while the server runs applies log.level immediately.
//
// Setting server.redis.tls.cert_file and key_file serves RESP over TLS on
// the TCP listener; rotated certificate files are picked up without a
// restart.
package main
