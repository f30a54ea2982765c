package engine

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/keymesh/internal/core/domain"
)

// defaultScanCount is the SCAN batch hint when COUNT is not given.
const defaultScanCount = 10

func (e *Engine) registerKeyCommands() {
	e.register("DEL", 1, variadic, e.cmdDel)
	e.register("EXISTS", 1, variadic, e.cmdExists)
	e.register("EXPIRE", 2, 2, e.cmdExpire)
	e.register("PEXPIRE", 2, 2, e.cmdExpire)
	e.register("TTL", 1, 1, e.cmdTTL)
	e.register("PTTL", 1, 1, e.cmdTTL)
	e.register("PERSIST", 1, 1, e.cmdPersist)
	e.register("DBSIZE", 0, 0, e.cmdDBSize)
	e.register("SCAN", 1, variadic, e.cmdScan)
}

func (e *Engine) cmdDel(_ context.Context, req request) domain.Reply {
	var n int64
	for _, key := range req.Args {
		if e.store.Delete(key) {
			n++
		}
	}
	return domain.Integer(n)
}

func (e *Engine) cmdExists(_ context.Context, req request) domain.Reply {
	var n int64
	for _, key := range req.Args {
		if e.store.ContainsKey(key) {
			n++
		}
	}
	return domain.Integer(n)
}

// EXPIRE key seconds / PEXPIRE key milliseconds
// A non-positive timeout deletes the key, as an already elapsed expiry would.
func (e *Engine) cmdExpire(_ context.Context, req request) domain.Reply {
	n, err := parseInt(req.Args[1])
	if err != nil {
		return domain.ErrorReply(err)
	}
	unit := time.Second
	if req.Name == "PEXPIRE" {
		unit = time.Millisecond
	}
	if n > int64(maxExpire/unit) {
		return domain.ErrorReply(domain.ErrInvalidExpire.WithMessage("invalid expire time in '%s' command", strings.ToLower(req.Name)))
	}

	set := false
	err = e.store.Update(req.Args[0], func(cur *domain.Value) (*domain.Value, error) {
		if cur == nil {
			return nil, nil
		}
		set = true
		if n <= 0 {
			return nil, nil
		}
		cur.SetExpiry(e.store.Now().Add(time.Duration(n) * unit))
		return cur, nil
	})
	if err != nil {
		return domain.ErrorReply(err)
	}
	if set {
		return domain.Integer(1)
	}
	return domain.Integer(0)
}

// maxExpire bounds relative expiries so the absolute deadline never overflows.
const maxExpire = 100 * 365 * 24 * time.Hour

// TTL key / PTTL key
// -2 when the key is absent, -1 when it has no expiry.
func (e *Engine) cmdTTL(_ context.Context, req request) domain.Reply {
	var ttl int64 = -2
	_ = e.store.View(req.Args[0], func(cur *domain.Value) error {
		if cur == nil {
			return nil
		}
		remaining, ok := cur.TTL(e.store.Now())
		switch {
		case !ok:
			ttl = -1
		case req.Name == "PTTL":
			ttl = remaining.Milliseconds()
		default:
			// Round to the nearest second.
			ttl = int64((remaining + 500*time.Millisecond) / time.Second)
		}
		return nil
	})
	return domain.Integer(ttl)
}

func (e *Engine) cmdPersist(_ context.Context, req request) domain.Reply {
	cleared := false
	err := e.store.Update(req.Args[0], func(cur *domain.Value) (*domain.Value, error) {
		if cur == nil {
			return nil, nil
		}
		if cur.ExpiresAt != 0 {
			cur.SetExpiry(time.Time{})
			cleared = true
		}
		return cur, nil
	})
	if err != nil {
		return domain.ErrorReply(err)
	}
	if cleared {
		return domain.Integer(1)
	}
	return domain.Integer(0)
}

func (e *Engine) cmdDBSize(_ context.Context, _ request) domain.Reply {
	return domain.Integer(int64(e.store.Len()))
}

// SCAN cursor [MATCH pattern] [COUNT count]
func (e *Engine) cmdScan(_ context.Context, req request) domain.Reply {
	cursor, err := strconv.Atoi(req.Args[0])
	if err != nil || cursor < 0 {
		return domain.ErrorReply(domain.ErrSyntax.WithMessage("invalid cursor"))
	}

	pattern := "*"
	count := defaultScanCount
	for i := 1; i < len(req.Args); i += 2 {
		if i+1 >= len(req.Args) {
			return domain.ErrorReply(domain.ErrSyntax)
		}
		switch strings.ToUpper(req.Args[i]) {
		case "MATCH":
			pattern = req.Args[i+1]
		case "COUNT":
			c, err := parseCount(req.Args[i+1])
			if err != nil || c == 0 {
				return domain.ErrorReply(domain.ErrSyntax)
			}
			count = c
		default:
			return domain.ErrorReply(domain.ErrSyntax)
		}
	}

	keys := make([]string, 0, count)
	next := e.store.Scan(cursor, count, func(key string) {
		if matchGlob(pattern, key) {
			keys = append(keys, key)
		}
	})

	return domain.Array(
		domain.Bulk(strconv.Itoa(next)),
		domain.BulkArray(keys),
	)
}

// matchGlob matches s against a pattern where '*' matches any run of
// characters. Other characters match literally.
func matchGlob(pattern, s string) bool {
	if pattern == "*" {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return pattern == s
	}

	parts := strings.Split(pattern, "*")

	// First part must be a prefix, last part a suffix.
	first, last := parts[0], parts[len(parts)-1]
	if !strings.HasPrefix(s, first) {
		return false
	}
	s = s[len(first):]
	if len(s) < len(last) || !strings.HasSuffix(s, last) {
		return false
	}
	s = s[:len(s)-len(last)]

	// Middle parts must appear in order.
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}
	return true
}
