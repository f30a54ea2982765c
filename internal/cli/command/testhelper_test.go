package command

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/keymesh/internal/core/engine"
	"github.com/yndnr/keymesh/internal/server/redisserver"
	"github.com/yndnr/keymesh/internal/storage/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startRedis serves a fresh engine on a loopback port.
func startRedis(t *testing.T) string {
	t.Helper()
	eng := engine.New(memory.New(), engine.WithLogger(discardLogger()))
	srv := redisserver.New(redisserver.DefaultConfig(), eng, discardLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if err := srv.Serve(context.Background(), ln); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return ln.Addr().String()
}

// cliRun holds the result of one CLI invocation.
type cliRun struct {
	out string
	err error
}

// isolateEnv clears the KEYMESH_* variables the CLI reads.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, v := range []string{"KEYMESH_SERVER", "KEYMESH_OUTPUT", "KEYMESH_TIMEOUT", "KEYMESH_HISTORY_FILE", "KEYMESH_ADMIN_URL", "KEYMESH_ADMIN_TOKEN"} {
		t.Setenv(v, "")
	}
}

// runCLI runs the app with a temp config file and captured output.
func runCLI(t *testing.T, cfgPath, stdin string, args ...string) cliRun {
	t.Helper()
	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)

	full := append([]string{"keymesh-cli", "--config", cfgPath, "--history-file", "-"}, args...)
	err := app.Run(full)
	return cliRun{out: out.String(), err: err}
}

func tempConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "cli.yaml")
}
