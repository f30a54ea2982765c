package command

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/keymesh/internal/server/httpserver"
	"github.com/yndnr/keymesh/internal/server/httpserver/handler"
	"github.com/yndnr/keymesh/internal/server/redisserver"
	"github.com/yndnr/keymesh/internal/telemetry/logger"
)

type fakeKeyspace struct{}

func (fakeKeyspace) Len() int             { return 4 }
func (fakeKeyspace) Blocked() int64       { return 1 }
func (fakeKeyspace) ExpiredTotal() uint64 { return 9 }

type fakeClients struct{}

func (fakeClients) ClientCount() int { return 1 }
func (fakeClients) Clients() []redisserver.ClientInfo {
	return []redisserver.ClientInfo{{ID: "c1", RemoteAddr: "127.0.0.1:5000"}}
}

func startAdmin(t *testing.T, ready func() error) string {
	t.Helper()
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler: handler.Options{
			Keyspace: fakeKeyspace{},
			Clients:  fakeClients{},
			Ready:    ready,
		},
		Logger:     discardLogger(),
		AdminToken: "s3cret",
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestAdmin_Health(t *testing.T) {
	isolateEnv(t)
	url := startAdmin(t, nil)

	r := runCLI(t, tempConfig(t), "", "admin", "--url", url, "health")
	if r.err != nil || r.out != "live:  healthy\nready: ready\n" {
		t.Errorf("admin health = %q, %v", r.out, r.err)
	}

	notReady := startAdmin(t, func() error { return errors.New("draining") })
	r = runCLI(t, tempConfig(t), "", "admin", "--url", notReady, "health")
	if r.err == nil || !strings.Contains(r.out, "KM-SYS-5031") {
		t.Errorf("admin health on draining server = %q, %v", r.out, r.err)
	}
}

func TestAdmin_Info(t *testing.T) {
	isolateEnv(t)
	url := startAdmin(t, nil)

	r := runCLI(t, tempConfig(t), "", "-o", "json", "admin", "--url", url, "--token", "s3cret", "info")
	if r.err != nil {
		t.Fatalf("admin info error = %v", r.err)
	}
	var info handler.InfoResponse
	if err := json.Unmarshal([]byte(r.out), &info); err != nil {
		t.Fatalf("decode %q: %v", r.out, err)
	}
	if info.Keyspace.Keys != 4 || info.Keyspace.ExpiredKeys != 9 || info.ConnectedClients != 1 {
		t.Errorf("info = %+v", info)
	}

	r = runCLI(t, tempConfig(t), "", "admin", "--url", url, "--token", "s3cret", "info")
	if !strings.Contains(r.out, "Keys:") || !strings.Contains(r.out, "4") {
		t.Errorf("admin info text = %q", r.out)
	}
}

func TestAdmin_Unauthorized(t *testing.T) {
	isolateEnv(t)
	url := startAdmin(t, nil)

	r := runCLI(t, tempConfig(t), "", "admin", "--url", url, "clients")
	var apiErr *APIError
	if !errors.As(r.err, &apiErr) || apiErr.Status != 401 || apiErr.Code != "KM-AUTH-4010" {
		t.Errorf("err = %v, want 401 APIError", r.err)
	}
}

func TestAdmin_Clients(t *testing.T) {
	isolateEnv(t)
	url := startAdmin(t, nil)

	r := runCLI(t, tempConfig(t), "", "admin", "--url", url, "--token", "s3cret", "clients")
	if r.err != nil {
		t.Fatalf("admin clients error = %v", r.err)
	}
	if !strings.HasPrefix(r.out, "ID") || !strings.Contains(r.out, "c1") || !strings.Contains(r.out, "127.0.0.1:5000") {
		t.Errorf("admin clients = %q", r.out)
	}
}

func TestAdmin_LogLevel(t *testing.T) {
	isolateEnv(t)
	url := startAdmin(t, nil)
	prev := logger.GetLevel()
	t.Cleanup(func() { logger.SetLevel(prev) })

	r := runCLI(t, tempConfig(t), "", "admin", "--url", url, "--token", "s3cret", "log-level", "debug")
	if r.err != nil || r.out != "debug\n" {
		t.Errorf("set log-level = %q, %v", r.out, r.err)
	}
	r = runCLI(t, tempConfig(t), "", "admin", "--url", url, "--token", "s3cret", "log-level")
	if r.err != nil || r.out != "debug\n" {
		t.Errorf("get log-level = %q, %v", r.out, r.err)
	}
	r = runCLI(t, tempConfig(t), "", "admin", "--url", url, "--token", "s3cret", "log-level", "loud")
	if r.err == nil {
		t.Error("invalid level accepted")
	}
}
