// Package logger sets up the process-wide slog logger.
//
// Every logger built by New shares one level, so SetLevel (driven by the
// admin endpoint and the config watcher) takes effect everywhere at once.
// Attributes named like secrets are masked, and stored values logged
// under "value" or "command" are cut to MaxPreviewLen bytes.
//
// Connection-scoped logging goes through the context: WithConnID and L
// tag records with the client's conn_id.
package logger
