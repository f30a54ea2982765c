package engine

import (
	"context"
	"strings"
	"time"

	"github.com/yndnr/keymesh/internal/core/domain"
	"github.com/yndnr/keymesh/internal/storage/memory"
)

func (e *Engine) registerStreamCommands() {
	e.register("XADD", 4, variadic, e.cmdXAdd)
	e.register("XRANGE", 3, 5, e.cmdXRange)
	e.register("XLEN", 1, 1, e.cmdXLen)
	e.register("XREAD", 2, variadic, e.cmdXRead)
}

// XADD key id field value [field value ...]
// id must be an explicit "<ms>-<seq>" strictly above the stream's top ID.
func (e *Engine) cmdXAdd(_ context.Context, req request) domain.Reply {
	pairs := req.Args[2:]
	if len(pairs)%2 != 0 {
		return domain.ErrorReply(domain.ArityError(req.Name))
	}
	id, err := domain.ParseEntryID(req.Args[1])
	if err != nil {
		return domain.ErrorReply(err)
	}
	fields := domain.NewFields(pairs...)

	err = e.store.Update(req.Args[0], func(cur *domain.Value) (*domain.Value, error) {
		if cur == nil {
			cur = domain.NewStream()
		}
		s, err := cur.Stream()
		if err != nil {
			return nil, err
		}
		if err := s.Add(id, fields); err != nil {
			return nil, err
		}
		return cur, nil
	})
	if err != nil {
		return domain.ErrorReply(err)
	}
	return domain.Bulk(id.String())
}

// XRANGE key start end [COUNT count]
// Both bounds are inclusive. "-" and "+" stand for the smallest and largest
// IDs, and a bare millisecond value covers every sequence in it.
func (e *Engine) cmdXRange(_ context.Context, req request) domain.Reply {
	start, err := domain.ParseRangeStart(req.Args[1])
	if err != nil {
		return domain.ErrorReply(err)
	}
	end, err := domain.ParseRangeEnd(req.Args[2])
	if err != nil {
		return domain.ErrorReply(err)
	}

	count := 0
	if len(req.Args) > 3 {
		if len(req.Args) != 5 || !strings.EqualFold(req.Args[3], "COUNT") {
			return domain.ErrorReply(domain.ErrSyntax)
		}
		if count, err = parseCount(req.Args[4]); err != nil {
			return domain.ErrorReply(err)
		}
		if count == 0 {
			return domain.Array()
		}
	}

	var entries []domain.StreamEntry
	err = e.store.View(req.Args[0], func(cur *domain.Value) error {
		if cur == nil {
			return nil
		}
		s, err := cur.Stream()
		if err != nil {
			return err
		}
		entries = s.Range(start, end, count)
		return nil
	})
	if err != nil {
		return domain.ErrorReply(err)
	}
	return domain.EntriesReply(entries)
}

func (e *Engine) cmdXLen(_ context.Context, req request) domain.Reply {
	var n int
	err := e.store.View(req.Args[0], func(cur *domain.Value) error {
		if cur == nil {
			return nil
		}
		s, err := cur.Stream()
		if err != nil {
			return err
		}
		n = s.Len()
		return nil
	})
	if err != nil {
		return domain.ErrorReply(err)
	}
	return domain.Integer(int64(n))
}

// xreadRequest is a parsed XREAD invocation.
type xreadRequest struct {
	keys  []string
	ids   []string // raw IDs, "$" resolved later
	count int
	block bool
	// timeout applies when block is set; zero waits forever.
	timeout time.Duration
}

// parseXRead accepts the short form "key fromID [timeoutSeconds]" and the
// full form "[COUNT n] [BLOCK ms] STREAMS key [key ...] id [id ...]".
func parseXRead(args []string) (xreadRequest, error) {
	var r xreadRequest

	switch strings.ToUpper(args[0]) {
	case "COUNT", "BLOCK", "STREAMS":
	default:
		if len(args) > 3 {
			return r, domain.ErrSyntax
		}
		r.keys = args[:1]
		r.ids = args[1:2]
		if len(args) == 3 {
			timeout, err := parseTimeout(args[2])
			if err != nil {
				return r, err
			}
			r.block = true
			r.timeout = timeout
		}
		return r, nil
	}

	i := 0
	for ; i < len(args); i++ {
		opt := strings.ToUpper(args[i])
		if opt == "STREAMS" {
			i++
			break
		}
		if i+1 >= len(args) {
			return r, domain.ErrSyntax
		}
		switch opt {
		case "COUNT":
			c, err := parseCount(args[i+1])
			if err != nil {
				return r, err
			}
			r.count = c
		case "BLOCK":
			timeout, err := parseBlockMillis(args[i+1])
			if err != nil {
				return r, err
			}
			r.block = true
			r.timeout = timeout
		default:
			return r, domain.ErrSyntax
		}
		i++
	}

	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return r, domain.ErrSyntax.WithMessage("Unbalanced 'xread' list of streams: for each stream key an ID must be specified.")
	}
	half := len(rest) / 2
	r.keys = rest[:half]
	r.ids = rest[half:]
	return r, nil
}

// XREAD returns, per key, the entries with IDs strictly greater than the
// given ID, as [[key, [[id, [field, value ...]] ...]] ...]. Keys without new
// entries are omitted and a nil array means nothing was found. When
// blocking, the caller is woken by any XADD to one of the keys; a key
// overwritten by another type meanwhile is waited on like a missing one.
func (e *Engine) cmdXRead(ctx context.Context, req request) domain.Reply {
	r, err := parseXRead(req.Args)
	if err != nil {
		return domain.ErrorReply(err)
	}

	after := make(map[string]domain.EntryID, len(r.keys))
	for i, key := range r.keys {
		id, err := e.resolveReadID(key, r.ids[i])
		if err != nil {
			return domain.ErrorReply(err)
		}
		after[key] = id
	}

	found := make(map[string][]domain.StreamEntry, len(r.keys))
	seen := make(map[string]bool, len(r.keys))
	try := func(key string, cur *domain.Value) (*domain.Value, bool, error) {
		recheck := seen[key]
		seen[key] = true
		if cur == nil {
			return cur, false, nil
		}
		s, err := cur.Stream()
		if err != nil {
			if recheck {
				return cur, false, nil
			}
			return cur, false, err
		}
		entries := s.After(after[key], r.count)
		if len(entries) == 0 {
			return cur, false, nil
		}
		found[key] = entries
		return cur, true, nil
	}

	deadline := e.store.Now()
	if r.block {
		deadline = e.deadlineFor(r.timeout, req.NoBlock)
	}
	done, err := e.store.Await(ctx, r.keys, memory.WaitObserve, deadline, try)
	if err != nil {
		return domain.ErrorReply(err)
	}
	if !done {
		return domain.NullArray()
	}

	items := make([]domain.Reply, 0, len(found))
	for _, key := range r.keys {
		entries, ok := found[key]
		if !ok {
			continue
		}
		delete(found, key)
		items = append(items, domain.Array(domain.Bulk(key), domain.EntriesReply(entries)))
	}
	return domain.Array(items...)
}

// resolveReadID parses an XREAD start ID. "$" is the current top ID of the
// stream, so only entries added afterwards are returned.
func (e *Engine) resolveReadID(key, raw string) (domain.EntryID, error) {
	if raw != "$" {
		return domain.ParseRangeStart(raw)
	}
	var id domain.EntryID
	err := e.store.View(key, func(cur *domain.Value) error {
		if cur == nil {
			return nil
		}
		s, err := cur.Stream()
		if err != nil {
			return err
		}
		id = s.LastID()
		return nil
	})
	return id, err
}
