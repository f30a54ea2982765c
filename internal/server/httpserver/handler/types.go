package handler

import (
	"time"

	"github.com/yndnr/keymesh/internal/infra/buildinfo"
	"github.com/yndnr/keymesh/internal/server/redisserver"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// InfoResponse is the body of GET /debug/info.
type InfoResponse struct {
	Build            buildinfo.Info `json:"build"`
	Uptime           string         `json:"uptime"`
	LogLevel         string         `json:"log_level"`
	ConnectedClients int            `json:"connected_clients"`
	Keyspace         KeyspaceInfo   `json:"keyspace"`
}

// KeyspaceInfo summarizes the store.
type KeyspaceInfo struct {
	Keys           int    `json:"keys"`
	BlockedClients int64  `json:"blocked_clients"`
	ExpiredKeys    uint64 `json:"expired_keys"`
}

// ClientsResponse is the body of GET /debug/clients.
type ClientsResponse struct {
	Count   int                      `json:"count"`
	Clients []redisserver.ClientInfo `json:"clients"`
}

// LogLevelRequest is the body of PUT /debug/log-level and the reply of
// both log-level endpoints.
type LogLevelRequest struct {
	Level string `json:"level"`
}
