// Package domain defines the core domain models for keymesh.
package domain

// minListCap is the initial ring capacity once a list receives an element.
const minListCap = 8

// List is a double-ended sequence of strings backed by a growable ring buffer.
// Index 0 is the head.
//
// List is not safe for concurrent use; the store serializes access per key.
type List struct {
	buf  []string
	head int
	n    int
}

// Len returns the number of elements.
func (l *List) Len() int {
	return l.n
}

// PushFront inserts s at the head.
func (l *List) PushFront(s string) {
	l.grow()
	l.head = (l.head - 1 + len(l.buf)) % len(l.buf)
	l.buf[l.head] = s
	l.n++
}

// PushBack appends s at the tail.
func (l *List) PushBack(s string) {
	l.grow()
	l.buf[(l.head+l.n)%len(l.buf)] = s
	l.n++
}

// PopFront removes and returns the head element.
func (l *List) PopFront() (string, bool) {
	if l.n == 0 {
		return "", false
	}
	s := l.buf[l.head]
	l.buf[l.head] = ""
	l.head = (l.head + 1) % len(l.buf)
	l.n--
	return s, true
}

// PopBack removes and returns the tail element.
func (l *List) PopBack() (string, bool) {
	if l.n == 0 {
		return "", false
	}
	idx := (l.head + l.n - 1) % len(l.buf)
	s := l.buf[idx]
	l.buf[idx] = ""
	l.n--
	return s, true
}

// At returns the element at index i (0 = head).
func (l *List) At(i int) string {
	return l.buf[(l.head+i)%len(l.buf)]
}

// Range returns the elements between start and end, both inclusive.
//
// Negative indices count from the tail (-1 is the last element). Indices are
// clamped to the list bounds; an empty slice is returned when the normalized
// range is empty.
func (l *List) Range(start, end int) []string {
	size := l.n
	if start < 0 {
		start += size
	}
	if end < 0 {
		end += size
	}
	if start < 0 {
		start = 0
	}
	if end > size-1 {
		end = size - 1
	}
	if start > end || start >= size {
		return []string{}
	}

	out := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, l.At(i))
	}
	return out
}

// Values returns all elements from head to tail.
func (l *List) Values() []string {
	return l.Range(0, -1)
}

func (l *List) grow() {
	if l.n < len(l.buf) {
		return
	}
	newCap := len(l.buf) * 2
	if newCap < minListCap {
		newCap = minListCap
	}
	buf := make([]string, newCap)
	for i := 0; i < l.n; i++ {
		buf[i] = l.At(i)
	}
	l.buf = buf
	l.head = 0
}

func (l *List) clone() *List {
	c := &List{}
	for i := 0; i < l.n; i++ {
		c.PushBack(l.At(i))
	}
	return c
}
