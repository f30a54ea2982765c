package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yndnr/keymesh/internal/core/domain"
	"github.com/yndnr/keymesh/internal/server/redisserver"
)

// KeyspaceStats reports keyspace figures for /debug/info.
type KeyspaceStats interface {
	Len() int
	Blocked() int64
	ExpiredTotal() uint64
}

// ClientRegistry lists the connected RESP clients.
type ClientRegistry interface {
	ClientCount() int
	Clients() []redisserver.ClientInfo
}

// Options wires the handler to the running server.
type Options struct {
	Keyspace KeyspaceStats
	Clients  ClientRegistry
	// Metrics serves /metrics. Nil leaves the route unregistered.
	Metrics http.Handler
	// Ready reports whether the server accepts traffic. Nil means always ready.
	Ready  func() error
	Logger *slog.Logger
}

// Handler serves the health, metrics and debug endpoints.
type Handler struct {
	opts   Options
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a new Handler.
func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		opts:   opts,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.HandleFunc("GET /readyz", h.handleReady)

	if h.opts.Metrics != nil {
		h.mux.Handle("GET /metrics", h.opts.Metrics)
	}

	h.mux.HandleFunc("GET /debug/info", h.handleInfo)
	h.mux.HandleFunc("GET /debug/clients", h.handleClients)
	h.mux.HandleFunc("GET /debug/log-level", h.handleGetLogLevel)
	h.mux.HandleFunc("PUT /debug/log-level", h.handleSetLogLevel)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := RequestIDFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a domain error with the standard envelope. The status
// code is derived from the error code.
func WriteError(w http.ResponseWriter, r *http.Request, err *domain.DomainError) {
	requestID := RequestIDFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", err.Code)
	w.WriteHeader(errorCodeToHTTPStatus(err.Code))
	_ = json.NewEncoder(w).Encode(NewErrorResponse(requestID, err.Code, err.Message, detailsOf(err)))
}

func detailsOf(err *domain.DomainError) any {
	if err.Details == "" {
		return nil
	}
	return err.Details
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4010"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-5030"), strings.HasSuffix(code, "-5031"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(code, "KM-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type requestIDKey struct{}

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID, or "" when none was set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
