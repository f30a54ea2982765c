package engine

import (
	"context"

	"github.com/yndnr/keymesh/internal/core/domain"
)

// Session is the per-connection command state.
//
// It is not safe for concurrent use; a connection dispatches one command
// at a time.
type Session struct {
	engine *Engine
	id     string

	queuing bool
	queue   []domain.Command
}

// NewSession creates a session in the normal (non-queuing) state.
func (e *Engine) NewSession(id string) *Session {
	return &Session{engine: e, id: id}
}

// ID returns the connection ID the session was created for.
func (s *Session) ID() string {
	return s.id
}

// InTransaction reports whether commands are currently being queued.
func (s *Session) InTransaction() bool {
	return s.queuing
}

// Queued returns the number of commands waiting for EXEC.
func (s *Session) Queued() int {
	return len(s.queue)
}

// Dispatch handles one command and returns exactly one reply.
//
// While queuing, every command except EXEC, DISCARD and MULTI is stored
// and answered with QUEUED.
func (s *Session) Dispatch(ctx context.Context, cmd domain.Command) domain.Reply {
	switch cmd.Name {
	case "MULTI":
		return s.multi(cmd)
	case "EXEC":
		return s.exec(ctx, cmd)
	case "DISCARD":
		return s.discard(cmd)
	}

	if s.queuing {
		s.queue = append(s.queue, cmd)
		return domain.ReplyQueued
	}
	return s.engine.execute(ctx, cmd, false)
}

func (s *Session) multi(cmd domain.Command) domain.Reply {
	if len(cmd.Args) != 0 {
		return domain.ErrorReply(domain.ArityError(cmd.Name))
	}
	if s.queuing {
		return domain.ErrorReply(domain.ErrNestedMulti)
	}
	s.queuing = true
	return domain.ReplyOK
}

// exec replays the queue in order. Each command runs as if issued on its
// own, except that blocking commands do not park. A failing command does
// not stop or undo the others.
func (s *Session) exec(ctx context.Context, cmd domain.Command) domain.Reply {
	if len(cmd.Args) != 0 {
		return domain.ErrorReply(domain.ArityError(cmd.Name))
	}
	if !s.queuing {
		return domain.ErrorReply(domain.ErrExecWithoutMulti)
	}

	queue := s.queue
	s.reset()

	replies := make([]domain.Reply, len(queue))
	for i, queued := range queue {
		replies[i] = s.engine.execute(ctx, queued, true)
	}
	s.engine.observer.TransactionFinished(len(queue), false)
	return domain.Array(replies...)
}

func (s *Session) discard(cmd domain.Command) domain.Reply {
	if len(cmd.Args) != 0 {
		return domain.ErrorReply(domain.ArityError(cmd.Name))
	}
	if !s.queuing {
		return domain.ErrorReply(domain.ErrDiscardWithoutMulti)
	}
	n := len(s.queue)
	s.reset()
	s.engine.observer.TransactionFinished(n, true)
	return domain.ReplyOK
}

func (s *Session) reset() {
	s.queuing = false
	s.queue = nil
}
