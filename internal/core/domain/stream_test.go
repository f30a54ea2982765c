package domain

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestParseEntryID(t *testing.T) {
	tests := []struct {
		in      string
		want    EntryID
		wantErr bool
	}{
		{"1-1", EntryID{1, 1}, false},
		{"0-0", EntryID{}, false},
		{"1526919030474-55", EntryID{1526919030474, 55}, false},
		{"18446744073709551615-18446744073709551615", MaxEntryID, false},
		{"1", EntryID{}, true},
		{"*", EntryID{}, true},
		{"1-*", EntryID{}, true},
		{"a-1", EntryID{}, true},
		{"-1", EntryID{}, true},
		{"1-1-1", EntryID{}, true},
		{"", EntryID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEntryID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEntryID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrStreamIDFormat) {
				t.Errorf("ParseEntryID(%q) error = %v, want %v", tt.in, err, ErrStreamIDFormat)
			}
			if got != tt.want {
				t.Errorf("ParseEntryID(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRangeBounds(t *testing.T) {
	start, err := ParseRangeStart("-")
	if err != nil || !start.IsZero() {
		t.Errorf("ParseRangeStart(-) = %v, %v", start, err)
	}
	start, err = ParseRangeStart("5")
	if err != nil || start != (EntryID{5, 0}) {
		t.Errorf("ParseRangeStart(5) = %v, %v", start, err)
	}
	end, err := ParseRangeEnd("+")
	if err != nil || end != MaxEntryID {
		t.Errorf("ParseRangeEnd(+) = %v, %v", end, err)
	}
	end, err = ParseRangeEnd("5")
	if err != nil || end != (EntryID{5, math.MaxUint64}) {
		t.Errorf("ParseRangeEnd(5) = %v, %v", end, err)
	}
	if _, err := ParseRangeEnd("x"); !errors.Is(err, ErrStreamIDFormat) {
		t.Errorf("ParseRangeEnd(x) error = %v, want %v", err, ErrStreamIDFormat)
	}
}

func TestEntryID_CompareNext(t *testing.T) {
	a := EntryID{1, 5}
	b := EntryID{2, 0}

	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Error("Compare() ordering is wrong")
	}
	// Numeric, not lexicographic.
	if !(EntryID{9, 0}).Less(EntryID{10, 0}) {
		t.Error("9-0 should sort before 10-0")
	}

	if next, ok := a.Next(); !ok || next != (EntryID{1, 6}) {
		t.Errorf("Next() = %v, %v", next, ok)
	}
	if next, ok := (EntryID{1, math.MaxUint64}).Next(); !ok || next != (EntryID{2, 0}) {
		t.Errorf("Next() carry = %v, %v", next, ok)
	}
	if _, ok := MaxEntryID.Next(); ok {
		t.Error("Next() on MaxEntryID should fail")
	}
	if got := a.String(); got != "1-5" {
		t.Errorf("String() = %q, want %q", got, "1-5")
	}
}

func TestNewFields(t *testing.T) {
	got := NewFields("a", "1", "b", "2", "a", "3", "dangling")
	want := []Field{{"a", "3"}, {"b", "2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NewFields() = %v, want %v", got, want)
	}
}

func TestStream_Add(t *testing.T) {
	s := newStream()

	if err := s.Add(EntryID{}, nil); !errors.Is(err, ErrStreamIDZero) {
		t.Errorf("Add(0-0) error = %v, want %v", err, ErrStreamIDZero)
	}
	if err := s.Add(EntryID{1, 1}, NewFields("f", "v")); err != nil {
		t.Fatalf("Add(1-1) error = %v", err)
	}
	if err := s.Add(EntryID{1, 1}, NewFields("f", "v")); !errors.Is(err, ErrStreamIDDuplicate) {
		t.Errorf("Add(1-1) again error = %v, want %v", err, ErrStreamIDDuplicate)
	}
	if err := s.Add(EntryID{1, 0}, NewFields("f", "v")); !errors.Is(err, ErrStreamIDOrder) {
		t.Errorf("Add(1-0) error = %v, want %v", err, ErrStreamIDOrder)
	}
	if err := s.Add(EntryID{1, 2}, NewFields("f", "v")); err != nil {
		t.Errorf("Add(1-2) error = %v", err)
	}

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if s.LastID() != (EntryID{1, 2}) {
		t.Errorf("LastID() = %v, want 1-2", s.LastID())
	}
}

func TestStream_RangeAfter(t *testing.T) {
	s := newStream()
	for _, id := range []EntryID{{1, 0}, {1, 1}, {2, 0}, {3, 5}} {
		if err := s.Add(id, NewFields("id", id.String())); err != nil {
			t.Fatalf("Add(%v) error = %v", id, err)
		}
	}

	ids := func(entries []StreamEntry) []string {
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = e.ID.String()
		}
		return out
	}

	tests := []struct {
		name string
		got  []StreamEntry
		want []string
	}{
		{"full", s.Range(EntryID{}, MaxEntryID, 0), []string{"1-0", "1-1", "2-0", "3-5"}},
		{"inclusive", s.Range(EntryID{1, 1}, EntryID{2, 0}, 0), []string{"1-1", "2-0"}},
		{"count", s.Range(EntryID{}, MaxEntryID, 2), []string{"1-0", "1-1"}},
		{"inverted", s.Range(EntryID{3, 0}, EntryID{1, 0}, 0), []string{}},
		{"after exclusive", s.After(EntryID{1, 1}, 0), []string{"2-0", "3-5"}},
		{"after zero", s.After(EntryID{}, 1), []string{"1-0"}},
		{"after top", s.After(EntryID{3, 5}, 0), []string{}},
		{"after max", s.After(MaxEntryID, 0), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(tt.got); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
