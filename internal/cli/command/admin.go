package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/keymesh/internal/cli/output"
	"github.com/yndnr/keymesh/internal/server/httpserver/handler"
)

// DefaultAdminURL is the default base URL of the HTTP admin listener.
const DefaultAdminURL = "http://127.0.0.1:6380"

// AdminCommand returns the HTTP admin subcommand group.
func AdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Query the server's HTTP admin endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "admin base URL",
				EnvVars: []string{"KEYMESH_ADMIN_URL"},
				Value:   DefaultAdminURL,
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "admin bearer token",
				EnvVars: []string{"KEYMESH_ADMIN_TOKEN"},
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check liveness and readiness",
				Action: adminHealth,
			},
			{
				Name:   "info",
				Usage:  "Show build, uptime and keyspace summary",
				Action: adminInfo,
			},
			{
				Name:   "clients",
				Usage:  "List connected RESP clients",
				Action: adminClients,
			},
			{
				Name:      "log-level",
				Usage:     "Show or change the server log level",
				ArgsUsage: "[LEVEL]",
				Action:    adminLogLevel,
			},
		},
	}
}

// adminClient calls the admin API and unwraps its response envelope.
type adminClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// envelope mirrors handler.Response with the payload left undecoded.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Details   any             `json:"details"`
}

// APIError is a non-OK admin response.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Details   any
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Details != nil {
		msg += fmt.Sprintf(" (%v)", e.Details)
	}
	if e.RequestID != "" {
		msg += " [request " + e.RequestID + "]"
	}
	return msg
}

func newAdminClient(c *cli.Context) *adminClient {
	timeout := 10 * time.Second
	if env := GetEnv(c); env != nil && env.Config.Timeout > 0 {
		timeout = env.Config.Timeout
	}
	return &adminClient{
		baseURL: strings.TrimRight(c.String("url"), "/"),
		token:   c.String("token"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (a *adminClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: HTTP %d: invalid response: %w", method, path, resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || env.Code != "OK" {
		return &APIError{
			Status:    resp.StatusCode,
			Code:      env.Code,
			Message:   env.Message,
			RequestID: env.RequestID,
			Details:   env.Details,
		}
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// printStructured writes v in the structured output formats and reports
// whether it did.
func printStructured(env *Env, v any) (bool, error) {
	switch env.Format {
	case output.FormatJSON:
		return true, output.EncodeJSON(env.Out, v)
	case output.FormatYAML:
		return true, output.EncodeYAML(env.Out, v)
	}
	return false, nil
}

func adminHealth(c *cli.Context) error {
	env := GetEnv(c)
	client := newAdminClient(c)

	result := map[string]string{}
	for _, probe := range []string{"healthz", "readyz"} {
		var status struct {
			Status string `json:"status"`
		}
		err := client.do(c.Context, http.MethodGet, "/"+probe, nil, &status)
		if err != nil {
			result[probe] = err.Error()
		} else {
			result[probe] = status.Status
		}
	}

	if ok, err := printStructured(env, result); ok {
		return err
	}
	fmt.Fprintf(env.Out, "live:  %s\nready: %s\n", result["healthz"], result["readyz"])
	if result["healthz"] != "healthy" || result["readyz"] != "ready" {
		return fmt.Errorf("server at %s is not healthy", client.baseURL)
	}
	return nil
}

func adminInfo(c *cli.Context) error {
	env := GetEnv(c)
	var info handler.InfoResponse
	if err := newAdminClient(c).do(c.Context, http.MethodGet, "/debug/info", nil, &info); err != nil {
		return err
	}

	if ok, err := printStructured(env, info); ok {
		return err
	}
	t := &output.Table{}
	t.AddRow("Version:", info.Build.Version)
	t.AddRow("Commit:", info.Build.Commit)
	t.AddRow("Go:", info.Build.GoVersion)
	t.AddRow("Uptime:", info.Uptime)
	t.AddRow("Log level:", info.LogLevel)
	t.AddRow("Clients:", fmt.Sprint(info.ConnectedClients))
	t.AddRow("Keys:", fmt.Sprint(info.Keyspace.Keys))
	t.AddRow("Blocked:", fmt.Sprint(info.Keyspace.BlockedClients))
	t.AddRow("Expired:", fmt.Sprint(info.Keyspace.ExpiredKeys))
	return t.Render(env.Out)
}

func adminClients(c *cli.Context) error {
	env := GetEnv(c)
	var clients handler.ClientsResponse
	if err := newAdminClient(c).do(c.Context, http.MethodGet, "/debug/clients", nil, &clients); err != nil {
		return err
	}

	if ok, err := printStructured(env, clients); ok {
		return err
	}
	if clients.Count == 0 {
		fmt.Fprintln(env.Out, "no clients connected")
		return nil
	}
	t := &output.Table{Headers: []string{"ID", "ADDRESS", "AGE"}}
	for _, cl := range clients.Clients {
		t.AddRow(cl.ID, cl.RemoteAddr, cl.Age.Round(time.Second).String())
	}
	return t.Render(env.Out)
}

func adminLogLevel(c *cli.Context) error {
	env := GetEnv(c)
	client := newAdminClient(c)

	var level handler.LogLevelRequest
	var err error
	if c.NArg() > 0 {
		err = client.do(c.Context, http.MethodPut, "/debug/log-level",
			handler.LogLevelRequest{Level: c.Args().First()}, &level)
	} else {
		err = client.do(c.Context, http.MethodGet, "/debug/log-level", nil, &level)
	}
	if err != nil {
		return err
	}

	if ok, err := printStructured(env, level); ok {
		return err
	}
	fmt.Fprintln(env.Out, level.Level)
	return nil
}
