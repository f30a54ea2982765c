package engine

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/keymesh/internal/core/domain"
)

func (e *Engine) registerStringCommands() {
	e.register("PING", 0, 1, e.cmdPing)
	e.register("ECHO", 1, 1, e.cmdEcho)
	e.register("GET", 1, 1, e.cmdGet)
	e.register("SET", 2, variadic, e.cmdSet)
	e.register("INCR", 1, 1, e.cmdIncr)
	e.register("TYPE", 1, 1, e.cmdType)
}

func (e *Engine) cmdPing(_ context.Context, req request) domain.Reply {
	if len(req.Args) == 1 {
		return domain.Bulk(req.Args[0])
	}
	return domain.ReplyPong
}

func (e *Engine) cmdEcho(_ context.Context, req request) domain.Reply {
	return domain.Bulk(req.Args[0])
}

func (e *Engine) cmdGet(_ context.Context, req request) domain.Reply {
	var reply domain.Reply
	err := e.store.View(req.Args[0], func(cur *domain.Value) error {
		if cur == nil {
			reply = domain.NullBulk()
			return nil
		}
		s, err := cur.Str()
		if err != nil {
			return err
		}
		reply = domain.Bulk(s)
		return nil
	})
	if err != nil {
		return domain.ErrorReply(err)
	}
	return reply
}

// setCondition restricts when SET writes.
type setCondition uint8

const (
	setAlways setCondition = iota
	setIfAbsent
	setIfPresent
)

// setOptions holds the parsed SET option list.
type setOptions struct {
	cond   setCondition
	expiry time.Duration
}

// parseSetOptions parses "[NX|XX] [EX seconds|PX milliseconds]" in any order.
func parseSetOptions(args []string) (setOptions, error) {
	var opts setOptions
	for i := 0; i < len(args); i++ {
		opt := strings.ToUpper(args[i])
		switch opt {
		case "NX", "XX":
			if opts.cond != setAlways {
				return opts, domain.ErrSyntax
			}
			opts.cond = setIfAbsent
			if opt == "XX" {
				opts.cond = setIfPresent
			}
		case "EX", "PX":
			if opts.expiry != 0 || i+1 >= len(args) {
				return opts, domain.ErrSyntax
			}
			i++
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				return opts, domain.ErrNotInteger
			}
			unit := time.Second
			if opt == "PX" {
				unit = time.Millisecond
			}
			if n <= 0 || n > math.MaxInt64/int64(unit) {
				return opts, domain.ErrInvalidExpire.WithMessage("invalid expire time in 'set' command")
			}
			opts.expiry = time.Duration(n) * unit
		default:
			return opts, domain.ErrUnknownOption.WithMessage("unknown option '%s' for 'set' command", args[i])
		}
	}
	return opts, nil
}

func (e *Engine) cmdSet(_ context.Context, req request) domain.Reply {
	key, val := req.Args[0], req.Args[1]
	opts, err := parseSetOptions(req.Args[2:])
	if err != nil {
		return domain.ErrorReply(err)
	}

	written := false
	err = e.store.Update(key, func(cur *domain.Value) (*domain.Value, error) {
		switch {
		case opts.cond == setIfAbsent && cur != nil,
			opts.cond == setIfPresent && cur == nil:
			return cur, nil
		}
		v := domain.NewString(val)
		if opts.expiry > 0 {
			v.SetExpiry(e.store.Now().Add(opts.expiry))
		}
		written = true
		return v, nil
	})
	if err != nil {
		return domain.ErrorReply(err)
	}
	if !written {
		return domain.NullBulk()
	}
	return domain.ReplyOK
}

func (e *Engine) cmdIncr(_ context.Context, req request) domain.Reply {
	var n int64
	err := e.store.Update(req.Args[0], func(cur *domain.Value) (*domain.Value, error) {
		if cur == nil {
			n = 1
			return domain.NewString("1"), nil
		}
		s, err := cur.Str()
		if err != nil {
			return nil, err
		}
		old, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, domain.ErrNotInteger
		}
		if old == math.MaxInt64 {
			return nil, domain.ErrIncrOverflow
		}
		n = old + 1
		return cur, cur.SetStr(strconv.FormatInt(n, 10))
	})
	if err != nil {
		return domain.ErrorReply(err)
	}
	return domain.Integer(n)
}

func (e *Engine) cmdType(_ context.Context, req request) domain.Reply {
	kind := domain.KindNone
	_ = e.store.View(req.Args[0], func(cur *domain.Value) error {
		kind = cur.Kind()
		return nil
	})
	return domain.Status(kind.String())
}
