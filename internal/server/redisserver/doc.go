// Package redisserver serves the keymesh engine over the Redis RESP2
// protocol.
//
// Each accepted connection gets its own engine session, so MULTI/EXEC state
// is per connection. Requests are RESP arrays of bulk strings or inline
// command lines. Replies are encoded from domain.Reply.
//
// Connection-level behavior handled here rather than by the engine:
//   - QUIT replies OK and closes the connection
//   - per-IP rate limiting (golang.org/x/time/rate)
//   - the max clients limit
//   - idle, read and write timeouts
//   - optional TLS on the TCP listener (Config.TLS)
//
// ReadReply and WriteCommand implement the client side of the protocol and
// are used by keymesh-cli.
package redisserver
