package engine

import (
	"math"
	"strconv"
	"time"

	"github.com/yndnr/keymesh/internal/core/domain"
)

// parseInt parses a signed 64-bit integer argument.
func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, domain.ErrNotInteger
	}
	return n, nil
}

// parseCount parses a non-negative count argument.
func parseCount(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 || n > math.MaxInt32 {
		return 0, domain.ErrNotInteger.WithMessage("value is out of range, must be positive")
	}
	return int(n), nil
}

// parseTimeout parses a blocking timeout in (possibly fractional) seconds.
// Zero means wait forever.
func parseTimeout(s string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, domain.ErrInvalidTimeout
	}
	if secs < 0 {
		return 0, domain.ErrInvalidTimeout.WithMessage("timeout is negative")
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// parseBlockMillis parses an XREAD BLOCK argument in milliseconds.
func parseBlockMillis(s string) (time.Duration, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidTimeout
	}
	if ms < 0 {
		return 0, domain.ErrInvalidTimeout.WithMessage("timeout is negative")
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// deadlineFor converts a relative timeout to the deadline used by Await.
// A zero timeout waits forever unless noBlock is set, in which case the
// deadline is now and Await checks exactly once.
func (e *Engine) deadlineFor(timeout time.Duration, noBlock bool) time.Time {
	now := e.store.Now()
	if noBlock {
		return now
	}
	if timeout == 0 {
		return time.Time{}
	}
	return now.Add(timeout)
}
