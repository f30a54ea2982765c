package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	"github.com/yndnr/keymesh/internal/core/domain"
	"github.com/yndnr/keymesh/internal/storage/memory"
	"github.com/yndnr/keymesh/internal/telemetry/logger"
)

// Store is the keyspace contract the executors rely on.
type Store interface {
	// View runs fn with the live value at key (nil when absent).
	View(key string, fn func(cur *domain.Value) error) error

	// Update runs fn with exclusive access to key and stores its result.
	Update(key string, fn func(cur *domain.Value) (*domain.Value, error)) error

	// Delete removes key and reports whether a live value was removed.
	Delete(key string) bool

	// ContainsKey reports whether key holds a live value.
	ContainsKey(key string) bool

	// Len returns the number of live keys.
	Len() int

	// Scan visits live keys from cursor and returns the next cursor.
	Scan(cursor, count int, fn func(key string)) int

	// Await retries try on keys until satisfied, timed out or canceled.
	Await(ctx context.Context, keys []string, mode memory.WaitMode, deadline time.Time, try memory.AttemptFunc) (bool, error)

	// Now returns the keyspace clock.
	Now() time.Time
}

// request is one command as seen by an executor.
type request struct {
	Name string
	Args []string

	// NoBlock makes blocking commands return immediately instead of
	// parking. It is set while replaying a transaction.
	NoBlock bool
}

type handlerFunc func(ctx context.Context, req request) domain.Reply

// variadic marks a command without an upper argument bound.
const variadic = -1

// command describes one entry of the command table. Argument counts
// exclude the command name.
type command struct {
	name    string
	minArgs int
	maxArgs int
	handler handlerFunc
}

func (c *command) checkArity(n int) bool {
	if n < c.minArgs {
		return false
	}
	return c.maxArgs == variadic || n <= c.maxArgs
}

// Engine executes commands against a Store.
type Engine struct {
	store    Store
	logger   *slog.Logger
	observer Observer
	commands map[string]*command
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithObserver sets the execution observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// New creates an Engine on top of store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		logger:   slog.Default(),
		observer: nopObserver{},
		commands: make(map[string]*command),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.registerStringCommands()
	e.registerKeyCommands()
	e.registerListCommands()
	e.registerStreamCommands()

	return e
}

func (e *Engine) register(name string, minArgs, maxArgs int, h handlerFunc) {
	e.commands[name] = &command{name: name, minArgs: minArgs, maxArgs: maxArgs, handler: h}
}

// Commands returns the names of all registered commands plus the
// transaction commands handled by Session.
func (e *Engine) Commands() []string {
	names := make([]string, 0, len(e.commands)+3)
	for name := range e.commands {
		names = append(names, name)
	}
	return append(names, "MULTI", "EXEC", "DISCARD")
}

// CommandNames returns the sorted names of every command an Engine
// understands. It needs no store.
func CommandNames() []string {
	names := New(nil).Commands()
	slices.Sort(names)
	return names
}

// Execute runs a single command outside of any transaction.
func (e *Engine) Execute(ctx context.Context, cmd domain.Command) domain.Reply {
	return e.execute(ctx, cmd, false)
}

// execute looks up and runs cmd. Panics inside a handler are converted to
// an internal error reply so the connection survives.
func (e *Engine) execute(ctx context.Context, cmd domain.Command, noBlock bool) (reply domain.Reply) {
	c, ok := e.commands[cmd.Name]
	if !ok {
		return domain.ErrorReply(domain.UnknownCommandError(cmd.Name))
	}
	if !c.checkArity(len(cmd.Args)) {
		return domain.ErrorReply(domain.ArityError(cmd.Name))
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Tag(ctx, e.logger).Error("command panicked",
				"command", cmd.Name,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			reply = domain.ErrorReply(domain.ErrInternal.WithDetails(fmt.Sprint(r)))
		}
		e.observer.CommandExecuted(cmd.Name, time.Since(start), reply.IsError())
	}()

	reply = c.handler(ctx, request{Name: cmd.Name, Args: cmd.Args, NoBlock: noBlock})
	if reply.IsError() {
		logger.Tag(ctx, e.logger).Debug("command failed", "command", cmd.Name, "error", reply.Str)
	}
	return reply
}
