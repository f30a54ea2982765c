package metric

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

type fakeStats struct {
	keys    int
	blocked int64
	expired uint64
}

func (f *fakeStats) Len() int             { return f.keys }
func (f *fakeStats) Blocked() int64       { return f.blocked }
func (f *fakeStats) ExpiredTotal() uint64 { return f.expired }

func TestKeyspaceCollector_Describe(t *testing.T) {
	c := NewKeyspaceCollector(&fakeStats{})
	ch := make(chan *prometheus.Desc, 10)
	c.Describe(ch)
	close(ch)

	n := 0
	for range ch {
		n++
	}
	if n != 3 {
		t.Errorf("Describe() sent %d descriptors, want 3", n)
	}
}

func TestKeyspaceCollector_Collect(t *testing.T) {
	stats := &fakeStats{keys: 5, blocked: 2, expired: 7}
	r := NewRegistry()
	if err := r.Register(NewKeyspaceCollector(stats)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	body := scrape(t, r)
	for _, want := range []string{
		"keymesh_keyspace_keys 5",
		"keymesh_keyspace_blocked_clients 2",
		"keymesh_keyspace_expired_keys_total 7",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}

	// Values are read at scrape time.
	stats.keys = 9
	if body := scrape(t, r); !strings.Contains(body, "keymesh_keyspace_keys 9") {
		t.Error("expected keymesh_keyspace_keys 9 after update")
	}
}

func TestKeyspaceCollector_RegisterTwice(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewKeyspaceCollector(&fakeStats{})); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(NewKeyspaceCollector(&fakeStats{})); err == nil {
		t.Error("second Register() error = nil, want duplicate error")
	}
}
