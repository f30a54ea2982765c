package redisserver

import (
	"context"
	"log/slog"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"

	"github.com/yndnr/keymesh/internal/core/domain"
	"github.com/yndnr/keymesh/internal/core/engine"
)

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *xsync.MapOf[string, *rate.Limiter]
}

func newRateLimiter(commandsPerSecond int) *rateLimiter {
	if commandsPerSecond <= 0 {
		return nil
	}
	return &rateLimiter{
		limit:   rate.Limit(commandsPerSecond),
		burst:   commandsPerSecond,
		buckets: xsync.NewMapOf[string, *rate.Limiter](),
	}
}

// allow reports whether one more command from ip fits the budget.
func (rl *rateLimiter) allow(ip string) bool {
	if rl == nil {
		return true
	}
	lim, _ := rl.buckets.LoadOrCompute(ip, func() *rate.Limiter {
		return rate.NewLimiter(rl.limit, rl.burst)
	})
	return lim.Allow()
}

// CommandHandler routes parsed commands to the connection's engine session.
type CommandHandler struct {
	engine      *engine.Engine
	logger      *slog.Logger
	rateLimiter *rateLimiter
}

// NewCommandHandler creates a CommandHandler. A rateLimit of 0 disables
// per-IP rate limiting.
func NewCommandHandler(eng *engine.Engine, rateLimit int, logger *slog.Logger) *CommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandHandler{
		engine:      eng,
		logger:      logger,
		rateLimiter: newRateLimiter(rateLimit),
	}
}

// Handle executes cmd for conn and returns the reply to send. quit is true
// when the connection must be closed after the reply is written.
func (h *CommandHandler) Handle(ctx context.Context, conn *Conn, cmd domain.Command) (reply domain.Reply, quit bool) {
	// Connection-level commands.
	if cmd.Name == "QUIT" {
		return domain.ReplyOK, true
	}

	if !h.rateLimiter.allow(conn.remoteIP()) {
		h.logger.Warn("rate limit exceeded", "conn_id", conn.id, "remote", conn.RemoteAddr())
		return domain.ErrorReply(domain.ErrRateLimited), false
	}

	return conn.session.Dispatch(ctx, cmd), false
}
