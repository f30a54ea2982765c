// Package memory provides the in-memory keyspace for keymesh.
//
// The Store maps keys to domain values on top of a sharded concurrent map.
// Every key also owns a FIFO waiter queue used by blocking commands.
//
// Features:
//
//   - Sharded Storage: keys distributed across shards for parallelism
//   - Lazy Expiry: expired values are dropped when next accessed
//   - Waiter Registry: per-key queues of parked BLPOP/XREAD callers
//   - Await: check, park, re-check loop bounded by an absolute deadline
//
// Thread Safety:
//
// All operations on one key run under that key's shard lock, so compound
// read-modify-write callbacks (Update) are atomic per key. Parked waiters
// never hold a lock.
package memory
