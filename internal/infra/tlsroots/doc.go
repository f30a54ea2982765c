// Package tlsroots builds TLS configurations for the RESP listener and
// its clients.
//
// Watcher serves the server key pair and reloads it through fsnotify when
// the files are rotated, so new handshakes pick up the new certificate
// without a restart. Pool loads PEM trust anchors for client
// verification on either side.
package tlsroots
