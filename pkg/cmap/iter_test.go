package cmap

import (
	"strconv"
	"testing"
)

func TestRange(t *testing.T) {
	m := New[string, int]()
	put(m, "a", 1)
	put(m, "b", 2)
	put(m, "c", 3)

	collected := make(map[string]int)
	m.Range(func(key string, value int) bool {
		collected[key] = value
		return true
	})

	for k, v := range map[string]int{"a": 1, "b": 2, "c": 3} {
		if collected[k] != v {
			t.Errorf("collected[%s] = %d, want %d", k, collected[k], v)
		}
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := New[string, int]()
	for i := 0; i < 100; i++ {
		put(m, strconv.Itoa(i), i)
	}

	count := 0
	m.Range(func(string, int) bool {
		count++
		return count < 10
	})

	if count != 10 {
		t.Errorf("Range visited %d items, want 10", count)
	}
}

func TestScan(t *testing.T) {
	tests := []struct {
		name  string
		total int
		count int
	}{
		{"empty", 0, 10},
		{"single batch", 5, 100},
		{"many batches", 500, 7},
		{"count zero", 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewWithShards[string, int](8)
			for i := 0; i < tt.total; i++ {
				put(m, strconv.Itoa(i), i)
			}

			seen := make(map[string]int)
			cursor := 0
			for rounds := 0; ; rounds++ {
				if rounds > m.ShardCount() {
					t.Fatal("Scan did not terminate")
				}
				cursor = m.Scan(cursor, tt.count, func(key string, _ int) {
					seen[key]++
				})
				if cursor == 0 {
					break
				}
			}

			if len(seen) != tt.total {
				t.Errorf("Scan visited %d keys, want %d", len(seen), tt.total)
			}
			for k, n := range seen {
				if n != 1 {
					t.Errorf("key %q visited %d times", k, n)
				}
			}
		})
	}
}

func TestScanInvalidCursor(t *testing.T) {
	m := NewWithShards[string, int](4)
	put(m, "a", 1)

	visited := 0
	for _, cursor := range []int{-1, 4, 1000} {
		if next := m.Scan(cursor, 10, func(string, int) { visited++ }); next != 0 {
			t.Errorf("Scan(%d) = %d, want 0", cursor, next)
		}
	}
	if visited != 0 {
		t.Errorf("invalid cursors visited %d keys, want 0", visited)
	}
}
