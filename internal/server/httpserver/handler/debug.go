package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/keymesh/internal/core/domain"
	"github.com/yndnr/keymesh/internal/infra/buildinfo"
	"github.com/yndnr/keymesh/internal/server/redisserver"
	"github.com/yndnr/keymesh/internal/telemetry/logger"
)

// handleInfo handles GET /debug/info.
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	resp := InfoResponse{
		Build:    buildinfo.Get(),
		Uptime:   buildinfo.Uptime().Round(time.Second).String(),
		LogLevel: logger.GetLevel(),
	}
	if ks := h.opts.Keyspace; ks != nil {
		resp.Keyspace = KeyspaceInfo{
			Keys:           ks.Len(),
			BlockedClients: ks.Blocked(),
			ExpiredKeys:    ks.ExpiredTotal(),
		}
	}
	if h.opts.Clients != nil {
		resp.ConnectedClients = h.opts.Clients.ClientCount()
	}

	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleClients handles GET /debug/clients.
func (h *Handler) handleClients(w http.ResponseWriter, r *http.Request) {
	clients := []redisserver.ClientInfo{}
	if h.opts.Clients != nil {
		clients = h.opts.Clients.Clients()
	}
	h.writeJSON(w, r, http.StatusOK, ClientsResponse{
		Count:   len(clients),
		Clients: clients,
	})
}

// handleGetLogLevel handles GET /debug/log-level.
func (h *Handler) handleGetLogLevel(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, LogLevelRequest{Level: logger.GetLevel()})
}

// handleSetLogLevel handles PUT /debug/log-level.
func (h *Handler) handleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req LogLevelRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		WriteError(w, r, domain.ErrBadRequest.WithDetails("invalid request body"))
		return
	}

	switch strings.ToLower(req.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		WriteError(w, r, domain.ErrBadRequest.WithDetails("level must be one of debug, info, warn, error"))
		return
	}

	previous := logger.GetLevel()
	logger.SetLevel(req.Level)
	h.logger.Info("log level changed", "from", previous, "to", logger.GetLevel())

	h.writeJSON(w, r, http.StatusOK, LogLevelRequest{Level: logger.GetLevel()})
}
