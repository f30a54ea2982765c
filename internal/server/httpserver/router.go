package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/keymesh/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Handler handler.Options

	// Logger for request logging.
	Logger *slog.Logger

	// AdminToken guards /debug/*. Empty disables the token check.
	AdminToken string

	// AllowList is the IP/CIDR allowlist for /debug/* and /metrics
	// (empty = no restriction).
	AllowList []string

	// RateLimit is the per-IP limit in requests/second (0 = off).
	RateLimit int
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
//
// Probes are unauthenticated. /metrics is subject to the allowlist and
// /debug/* additionally requires the admin token.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Handler.Logger == nil {
		cfg.Handler.Logger = logger
	}
	h := handler.New(cfg.Handler)

	acl := NetworkACL(&NetworkACLConfig{AllowList: cfg.AllowList, Logger: logger})

	mux := http.NewServeMux()
	mux.Handle("/healthz", h)
	mux.Handle("/readyz", h)
	mux.Handle("/metrics", Chain(h, acl))
	mux.Handle("/debug/", Chain(h, acl, AdminToken(cfg.AdminToken)))

	// Order: Recover -> RequestID -> AccessLog -> RateLimit -> routes
	return Chain(mux,
		Recover(logger),
		RequestID(),
		AccessLog(logger),
		RateLimit(cfg.RateLimit),
	)
}
