package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/yndnr/keymesh/internal/cli/repl"
	"github.com/yndnr/keymesh/internal/core/engine"
)

// runOnce sends one command and prints the reply.
func runOnce(ctx context.Context, env *Env, args []string) error {
	reply, err := env.Conn.Do(ctx, args...)
	if err != nil {
		return err
	}
	if err := env.Formatter.Format(env.Out, reply); err != nil {
		return err
	}
	if reply.IsError() {
		return ErrServerReply
	}
	return nil
}

// runREPL starts the interactive prompt. Ctrl-C cancels the running
// command only.
func runREPL(ctx context.Context, env *Env) error {
	historyFile := env.Config.HistoryFile
	switch historyFile {
	case "":
		historyFile = repl.DefaultHistoryFile()
	case "-":
		historyFile = ""
	}
	history := repl.NewHistory(historyFile)
	if err := history.Load(); err != nil {
		fmt.Fprintf(env.Err, "warning: history not loaded: %v\n", err)
	}
	defer func() {
		if err := history.Save(); err != nil {
			fmt.Fprintf(env.Err, "warning: history not saved: %v\n", err)
		}
	}()

	r := repl.New(
		func(ctx context.Context, args []string) error {
			cmdCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()
			return execute(cmdCtx, env, args)
		},
		repl.WithIO(env.In, env.Out),
		repl.WithPrompt(func() string { return env.Conn.Addr() + "> " }),
		repl.WithHistory(history),
		repl.WithCompleter(repl.NewCompleter(append(engine.CommandNames(), "CONNECT"))),
	)
	return r.Run(ctx)
}

// execute runs one REPL line. CONNECT switches servers locally; anything
// else goes to the server. Error replies are printed, not returned.
func execute(ctx context.Context, env *Env, args []string) error {
	if strings.EqualFold(args[0], "connect") {
		if len(args) != 2 {
			return fmt.Errorf("usage: CONNECT <name|address>")
		}
		addr := args[1]
		if conn, ok := env.Config.Connections[addr]; ok {
			addr = conn.Server
		}
		if err := env.Conn.Connect(ctx, addr); err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "connected to %s\n", addr)
		return nil
	}

	reply, err := env.Conn.Do(ctx, args...)
	if err != nil {
		return err
	}
	return env.Formatter.Format(env.Out, reply)
}
