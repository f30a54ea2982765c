// Package connection manages the keymesh-cli link to a server.
//
//   - client.go: a RESP client speaking over TCP or a unix socket
//   - manager.go: the current connection with lazy dial and reconnect
package connection
