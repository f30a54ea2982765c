// Package engine executes parsed commands against the keyspace.
//
// An Engine owns the command table and the executors for the string, key,
// list, blocking-pop and stream command families. Each connection gets its
// own Session, which implements the MULTI/EXEC/DISCARD queue-and-replay
// state machine and forwards everything else to the Engine.
//
// Executors only touch the keyspace through the Store interface, and every
// compound read-modify-write runs inside a single Store.Update call, so it
// is atomic with respect to other commands on the same key.
package engine
