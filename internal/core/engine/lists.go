package engine

import (
	"context"

	"github.com/yndnr/keymesh/internal/core/domain"
	"github.com/yndnr/keymesh/internal/storage/memory"
	"github.com/yndnr/keymesh/internal/telemetry/logger"
)

func (e *Engine) registerListCommands() {
	e.register("LPUSH", 2, variadic, e.cmdPush)
	e.register("RPUSH", 2, variadic, e.cmdPush)
	e.register("LLEN", 1, 1, e.cmdLLen)
	e.register("LPOP", 1, 2, e.cmdPop)
	e.register("RPOP", 1, 2, e.cmdPop)
	e.register("LRANGE", 3, 3, e.cmdLRange)
	e.register("BLPOP", 2, variadic, e.cmdBLPop)
}

// LPUSH key element [element ...] / RPUSH key element [element ...]
// LPUSH prepends each element in turn, so the last one ends up at the head.
// Waiters on key are woken by the Store once the update commits.
func (e *Engine) cmdPush(_ context.Context, req request) domain.Reply {
	key, elems := req.Args[0], req.Args[1:]
	front := req.Name == "LPUSH"

	var n int
	err := e.store.Update(key, func(cur *domain.Value) (*domain.Value, error) {
		if cur == nil {
			cur = domain.NewList()
		}
		l, err := cur.List()
		if err != nil {
			return nil, err
		}
		for _, elem := range elems {
			if front {
				l.PushFront(elem)
			} else {
				l.PushBack(elem)
			}
		}
		n = l.Len()
		return cur, nil
	})
	if err != nil {
		return domain.ErrorReply(err)
	}
	return domain.Integer(int64(n))
}

func (e *Engine) cmdLLen(_ context.Context, req request) domain.Reply {
	var n int
	err := e.store.View(req.Args[0], func(cur *domain.Value) error {
		if cur == nil {
			return nil
		}
		l, err := cur.List()
		if err != nil {
			return err
		}
		n = l.Len()
		return nil
	})
	if err != nil {
		return domain.ErrorReply(err)
	}
	return domain.Integer(int64(n))
}

// LPOP key [count] / RPOP key [count]
// Without count the reply is a single bulk (nil when empty). With count it
// is an array of up to count elements. A list emptied by the pop is deleted.
func (e *Engine) cmdPop(_ context.Context, req request) domain.Reply {
	withCount := len(req.Args) == 2
	count := 1
	if withCount {
		c, err := parseCount(req.Args[1])
		if err != nil {
			return domain.ErrorReply(err)
		}
		count = c
	}
	front := req.Name == "LPOP"

	var popped []string
	err := e.store.Update(req.Args[0], func(cur *domain.Value) (*domain.Value, error) {
		if cur == nil {
			return nil, nil
		}
		l, err := cur.List()
		if err != nil {
			return nil, err
		}
		popped = make([]string, 0, min(count, l.Len()))
		for len(popped) < count {
			var (
				v  string
				ok bool
			)
			if front {
				v, ok = l.PopFront()
			} else {
				v, ok = l.PopBack()
			}
			if !ok {
				break
			}
			popped = append(popped, v)
		}
		if l.Len() == 0 {
			return nil, nil
		}
		return cur, nil
	})
	if err != nil {
		return domain.ErrorReply(err)
	}

	if withCount {
		return domain.BulkArray(popped)
	}
	if len(popped) == 0 {
		return domain.NullBulk()
	}
	return domain.Bulk(popped[0])
}

func (e *Engine) cmdLRange(_ context.Context, req request) domain.Reply {
	start, err := parseInt(req.Args[1])
	if err != nil {
		return domain.ErrorReply(err)
	}
	end, err := parseInt(req.Args[2])
	if err != nil {
		return domain.ErrorReply(err)
	}

	var out []string
	err = e.store.View(req.Args[0], func(cur *domain.Value) error {
		if cur == nil {
			return nil
		}
		l, err := cur.List()
		if err != nil {
			return err
		}
		out = l.Range(clampIndex(start), clampIndex(end))
		return nil
	})
	if err != nil {
		return domain.ErrorReply(err)
	}
	return domain.BulkArray(out)
}

// clampIndex narrows a list index to int without changing its meaning for
// any list that fits in memory.
func clampIndex(n int64) int {
	const limit = 1 << 40
	switch {
	case n > limit:
		return limit
	case n < -limit:
		return -limit
	}
	return int(n)
}

// BLPOP key [key ...] timeout
//
// The first non-empty list in argument order is popped immediately.
// Otherwise the caller parks on every key until a push makes one of them
// non-empty, the timeout elapses (nil array) or ctx is canceled. A zero
// timeout waits forever. Only the first check reports WRONGTYPE; a key
// that changes type while the caller is parked is treated as empty.
func (e *Engine) cmdBLPop(ctx context.Context, req request) domain.Reply {
	keys := req.Args[:len(req.Args)-1]
	timeout, err := parseTimeout(req.Args[len(req.Args)-1])
	if err != nil {
		return domain.ErrorReply(err)
	}

	var poppedKey, popped string
	seen := make(map[string]bool, len(keys))
	try := func(key string, cur *domain.Value) (*domain.Value, bool, error) {
		recheck := seen[key]
		seen[key] = true
		if cur == nil {
			return nil, false, nil
		}
		l, err := cur.List()
		if err != nil {
			if recheck {
				// Overwritten by another type while parked: keep waiting.
				return cur, false, nil
			}
			return cur, false, err
		}
		v, ok := l.PopFront()
		if !ok {
			return nil, false, nil
		}
		poppedKey, popped = key, v
		if l.Len() == 0 {
			return nil, true, nil
		}
		return cur, true, nil
	}

	deadline := e.deadlineFor(timeout, req.NoBlock)
	done, err := e.store.Await(ctx, keys, memory.WaitConsume, deadline, try)
	if err != nil {
		logger.Tag(ctx, e.logger).Debug("blpop aborted", "keys", len(keys), "error", err)
		return domain.ErrorReply(err)
	}
	if !done {
		return domain.NullArray()
	}
	return domain.Array(domain.Bulk(poppedKey), domain.Bulk(popped))
}
