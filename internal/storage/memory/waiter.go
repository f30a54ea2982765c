package memory

// WaitMode tells the store how a waiter reacts to new data.
type WaitMode uint8

const (
	// WaitConsume waiters remove data when they wake (BLPOP). Only the
	// head consumer of a queue is signaled per write.
	WaitConsume WaitMode = iota

	// WaitObserve waiters only read (XREAD). Every observer is signaled.
	WaitObserve
)

// String returns the mode name used in logs.
func (m WaitMode) String() string {
	if m == WaitObserve {
		return "observe"
	}
	return "consume"
}

// Waiter is a parked caller registered on one or more keys.
//
// The signal channel has capacity one, so a notification sent while the
// waiter is between checks is kept until it parks again.
type Waiter struct {
	Mode WaitMode

	ch chan struct{}
}

// NewWaiter creates an unregistered waiter.
func NewWaiter(mode WaitMode) *Waiter {
	return &Waiter{
		Mode: mode,
		ch:   make(chan struct{}, 1),
	}
}

// C returns the channel that receives wake signals.
func (w *Waiter) C() <-chan struct{} {
	return w.ch
}

// signal wakes the waiter without blocking. It returns false when a
// signal was already pending.
func (w *Waiter) signal() bool {
	select {
	case w.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// waitQueue is the FIFO of waiters parked on one key.
type waitQueue []*Waiter

func (q waitQueue) indexOf(w *Waiter) int {
	for i, cur := range q {
		if cur == w {
			return i
		}
	}
	return -1
}

// add appends w unless it is already queued.
func (q waitQueue) add(w *Waiter) waitQueue {
	if q.indexOf(w) >= 0 {
		return q
	}
	return append(q, w)
}

func (q waitQueue) remove(w *Waiter) waitQueue {
	i := q.indexOf(w)
	if i < 0 {
		return q
	}
	copy(q[i:], q[i+1:])
	q[len(q)-1] = nil
	return q[:len(q)-1]
}

// notify signals the first consumer and every observer. It returns the
// number of waiters that received a new signal.
func (q waitQueue) notify() int {
	n := 0
	consumerSignaled := false
	for _, w := range q {
		switch w.Mode {
		case WaitObserve:
			if w.signal() {
				n++
			}
		case WaitConsume:
			if consumerSignaled {
				continue
			}
			consumerSignaled = true
			if w.signal() {
				n++
			}
		}
	}
	return n
}
