package engine

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/keymesh/internal/core/domain"
	"github.com/yndnr/keymesh/internal/storage/memory"
)

func TestPushOrder(t *testing.T) {
	e, _ := newTestEngine()

	assertReply(t, do(e, "LPUSH", "l", "a", "b", "c"), domain.Integer(3))
	assertReply(t, do(e, "LRANGE", "l", "0", "-1"), bulks("c", "b", "a"))

	assertReply(t, do(e, "RPUSH", "r", "a", "b", "c"), domain.Integer(3))
	assertReply(t, do(e, "LRANGE", "r", "0", "-1"), bulks("a", "b", "c"))

	assertReply(t, do(e, "RPUSH", "l", "z"), domain.Integer(4))
	assertReply(t, do(e, "LLEN", "l"), domain.Integer(4))
}

func TestLRange(t *testing.T) {
	e, _ := newTestEngine()
	do(e, "RPUSH", "l", "a", "b", "c", "d", "e")

	tests := []struct {
		start, end string
		want       domain.Reply
	}{
		{"-3", "-1", bulks("c", "d", "e")},
		{"10", "20", bulks()},
		{"0", "0", bulks("a")},
		{"3", "1", bulks()},
		{"-100", "1", bulks("a", "b")},
		{"2", "100", bulks("c", "d", "e")},
	}

	for _, tt := range tests {
		t.Run(tt.start+".."+tt.end, func(t *testing.T) {
			assertReply(t, do(e, "LRANGE", "l", tt.start, tt.end), tt.want)
		})
	}

	assertReply(t, do(e, "LRANGE", "missing", "0", "-1"), bulks())
	assertError(t, do(e, "LRANGE", "l", "a", "1"), "ERR value is not an integer or out of range")
}

func TestPop(t *testing.T) {
	e, _ := newTestEngine()
	do(e, "RPUSH", "l", "a", "b", "c", "d")

	assertReply(t, do(e, "LPOP", "l"), domain.Bulk("a"))
	assertReply(t, do(e, "RPOP", "l"), domain.Bulk("d"))
	assertReply(t, do(e, "LPOP", "l", "5"), bulks("b", "c"))

	assertReply(t, do(e, "LPOP", "l"), domain.NullBulk())
	assertReply(t, do(e, "LPOP", "l", "2"), bulks())
	assertReply(t, do(e, "RPOP", "missing"), domain.NullBulk())
	assertError(t, do(e, "LPOP", "l", "-1"), "ERR value is out of range, must be positive")
}

func TestPopDeletesEmptiedList(t *testing.T) {
	e, _ := newTestEngine()
	do(e, "RPUSH", "l", "only")
	do(e, "LPOP", "l")

	assertReply(t, do(e, "TYPE", "l"), domain.Status("none"))
	assertReply(t, do(e, "LLEN", "l"), domain.Integer(0))
	assertReply(t, do(e, "EXISTS", "l"), domain.Integer(0))
}

func TestListWrongType(t *testing.T) {
	e, _ := newTestEngine()
	do(e, "SET", "s", "v")

	const wrongType = "WRONGTYPE Operation against a key holding the wrong kind of value"
	for _, args := range [][]string{
		{"LPUSH", "s", "a"},
		{"RPUSH", "s", "a"},
		{"LLEN", "s"},
		{"LPOP", "s"},
		{"LRANGE", "s", "0", "-1"},
		{"BLPOP", "s", "0"},
	} {
		t.Run(args[0], func(t *testing.T) {
			assertError(t, do(e, args...), wrongType)
		})
	}
	assertReply(t, do(e, "GET", "s"), domain.Bulk("v"))
}

func TestBLPopImmediate(t *testing.T) {
	e, store := newTestEngine()
	do(e, "RPUSH", "l", "a", "b")

	assertReply(t, do(e, "BLPOP", "l", "1"), bulks("l", "a"))
	if n := len(store.Waiters("l")); n != 0 {
		t.Errorf("Waiters = %d, want 0 after immediate pop", n)
	}
}

func TestBLPopFirstNonEmptyKey(t *testing.T) {
	e, _ := newTestEngine()
	do(e, "RPUSH", "second", "x")

	assertReply(t, do(e, "BLPOP", "first", "second", "1"), bulks("second", "x"))
}

func TestBLPopTimeout(t *testing.T) {
	e, _ := newTestEngine()

	start := time.Now()
	got := do(e, "BLPOP", "l", "0.1")
	elapsed := time.Since(start)

	assertReply(t, got, domain.NullArray())
	if elapsed < 100*time.Millisecond {
		t.Errorf("BLPOP returned after %v, want >= 100ms", elapsed)
	}
}

func TestBLPopBadTimeout(t *testing.T) {
	e, _ := newTestEngine()
	assertError(t, do(e, "BLPOP", "l", "soon"), "ERR timeout is not a float or out of range")
	assertError(t, do(e, "BLPOP", "l", "-1"), "ERR timeout is negative")
}

func TestBLPopWokenByPush(t *testing.T) {
	e, store := newTestEngine()

	result := make(chan domain.Reply, 1)
	go func() {
		result <- do(e, "BLPOP", "l", "0")
	}()

	waitForWaiters(t, store, "l", 1)
	assertReply(t, do(e, "RPUSH", "l", "v"), domain.Integer(1))

	select {
	case got := <-result:
		assertReply(t, got, bulks("l", "v"))
	case <-time.After(2 * time.Second):
		t.Fatal("BLPOP was not woken by RPUSH")
	}
	assertReply(t, do(e, "LLEN", "l"), domain.Integer(0))
}

func TestBLPopCanceled(t *testing.T) {
	e, store := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan domain.Reply, 1)
	go func() {
		result <- e.NewSession("c").Dispatch(ctx, cmd("BLPOP", "l", "0"))
	}()

	waitForWaiters(t, store, "l", 1)
	cancel()

	select {
	case got := <-result:
		assertError(t, got, "ERR operation canceled")
	case <-time.After(2 * time.Second):
		t.Fatal("BLPOP ignored cancellation")
	}
	if n := len(store.Waiters("l")); n != 0 {
		t.Errorf("Waiters = %d, want 0 after cancel", n)
	}
}

func TestBLPopKeyRetypedWhileParked(t *testing.T) {
	e, store := newTestEngine()

	result := make(chan domain.Reply, 1)
	go func() {
		result <- do(e, "BLPOP", "l", "0")
	}()

	waitForWaiters(t, store, "l", 1)
	assertReply(t, do(e, "SET", "l", "x"), domain.ReplyOK)

	select {
	case got := <-result:
		t.Fatalf("BLPOP returned %s after SET, want it to keep waiting", formatReply(got))
	case <-time.After(50 * time.Millisecond):
	}

	assertReply(t, do(e, "DEL", "l"), domain.Integer(1))
	assertReply(t, do(e, "RPUSH", "l", "v"), domain.Integer(1))

	select {
	case got := <-result:
		assertReply(t, got, bulks("l", "v"))
	case <-time.After(2 * time.Second):
		t.Fatal("BLPOP was not woken by RPUSH after the key was retyped")
	}
}

func TestBLPopManyWaitersNoLoss(t *testing.T) {
	e, store := newTestEngine()
	const clients = 10

	var wg sync.WaitGroup
	replies := make(chan domain.Reply, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			replies <- do(e, "BLPOP", "q", "5")
		}()
	}

	waitForWaiters(t, store, "q", clients)
	for i := 0; i < clients; i++ {
		do(e, "RPUSH", "q", strconv.Itoa(i))
	}
	wg.Wait()
	close(replies)

	seen := make(map[string]bool)
	for r := range replies {
		if r.Null || len(r.Array) != 2 {
			t.Fatalf("BLPOP reply = %s, want [key value]", formatReply(r))
		}
		v := r.Array[1].Str
		if seen[v] {
			t.Errorf("value %q delivered twice", v)
		}
		seen[v] = true
	}
	if len(seen) != clients {
		t.Errorf("delivered %d values, want %d", len(seen), clients)
	}
}

func waitForWaiters(t *testing.T, store *memory.Store, key string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(store.Waiters(key)) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d waiters on %q", n, key)
		}
		time.Sleep(time.Millisecond)
	}
}
