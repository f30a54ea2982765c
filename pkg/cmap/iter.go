package cmap

// Range calls fn for every entry until fn returns false. Each shard is
// read-locked while it is visited, so fn must not write to the Map.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for i := range m.shards {
		if !m.rangeShard(i, fn) {
			return
		}
	}
}

func (m *Map[K, V]) rangeShard(i int, fn func(key K, value V) bool) bool {
	s := &m.shards[i]
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.items {
		if !fn(k, v) {
			return false
		}
	}
	return true
}

// Scan visits whole shards starting at shard cursor until at least count
// entries have been offered to fn, and returns the cursor of the next
// unvisited shard. A returned cursor of 0 means the iteration is complete.
//
// A key present for the whole iteration is visited exactly once; keys added
// or removed meanwhile may or may not be visited.
func (m *Map[K, V]) Scan(cursor, count int, fn func(key K, value V)) int {
	if cursor < 0 || cursor >= len(m.shards) {
		return 0
	}
	count = max(count, 1)

	seen := 0
	for i := cursor; i < len(m.shards); i++ {
		m.rangeShard(i, func(k K, v V) bool {
			fn(k, v)
			seen++
			return true
		})
		if seen >= count && i+1 < len(m.shards) {
			return i + 1
		}
	}
	return 0
}
