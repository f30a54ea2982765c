// Package cmap provides a sharded concurrent map keyed by strings.
//
// Keys are placed on a power-of-two number of shards with a seeded
// murmur3 hash, and each shard has its own RWMutex. The keyspace in
// internal/storage/memory builds on Compute, which runs a read-modify-write
// of one key under its shard lock, and on Scan, a resumable cursor at
// shard granularity.
//
//	m := cmap.New[string, *slot]()
//	m.Compute("k", func(cur *slot, ok bool) (*slot, bool) {
//		return &slot{}, true
//	})
package cmap
