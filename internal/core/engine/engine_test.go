package engine

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/yndnr/keymesh/internal/core/domain"
	"github.com/yndnr/keymesh/internal/telemetry/logger"
)

func TestEngine_UnknownCommand(t *testing.T) {
	e, _ := newTestEngine()
	assertError(t, do(e, "NOPE", "x"), "ERR unknown command 'NOPE'")
}

func TestEngine_CaseInsensitiveNames(t *testing.T) {
	e, _ := newTestEngine()
	assertReply(t, do(e, "set", "k", "v"), domain.ReplyOK)
	assertReply(t, do(e, "GeT", "k"), domain.Bulk("v"))
}

func TestEngine_Arity(t *testing.T) {
	e, _ := newTestEngine()

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"GET"}, "ERR wrong number of arguments for 'get' command"},
		{[]string{"GET", "a", "b"}, "ERR wrong number of arguments for 'get' command"},
		{[]string{"ECHO"}, "ERR wrong number of arguments for 'echo' command"},
		{[]string{"ECHO", "a", "b"}, "ERR wrong number of arguments for 'echo' command"},
		{[]string{"PING", "a", "b"}, "ERR wrong number of arguments for 'ping' command"},
		{[]string{"SET", "k"}, "ERR wrong number of arguments for 'set' command"},
		{[]string{"LPUSH", "k"}, "ERR wrong number of arguments for 'lpush' command"},
		{[]string{"LPOP", "k", "1", "2"}, "ERR wrong number of arguments for 'lpop' command"},
		{[]string{"LRANGE", "k", "0"}, "ERR wrong number of arguments for 'lrange' command"},
		{[]string{"BLPOP", "k"}, "ERR wrong number of arguments for 'blpop' command"},
		{[]string{"XADD", "s", "1-1", "f"}, "ERR wrong number of arguments for 'xadd' command"},
		{[]string{"XADD", "s", "1-1", "f", "v", "g"}, "ERR wrong number of arguments for 'xadd' command"},
		{[]string{"MULTI", "x"}, "ERR wrong number of arguments for 'multi' command"},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			assertError(t, do(e, tt.args...), tt.want)
		})
	}
}

func TestEngine_PanicRecovered(t *testing.T) {
	e, _ := newTestEngine()
	e.register("BOOM", 0, 0, func(context.Context, request) domain.Reply {
		panic("kaboom")
	})

	assertError(t, do(e, "BOOM"), "ERR internal error")

	// The engine keeps working after a panic.
	assertReply(t, do(e, "PING"), domain.ReplyPong)
}

func TestEngine_Observer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	obs := NewMockObserver(ctrl)
	e, _ := newTestEngine(WithObserver(obs))

	gomock.InOrder(
		obs.EXPECT().CommandExecuted("SET", gomock.Any(), false).Times(1),
		obs.EXPECT().CommandExecuted("INCR", gomock.Any(), true).Times(1),
	)

	s := e.NewSession("c1")
	s.Dispatch(context.Background(), cmd("SET", "k", "abc"))
	s.Dispatch(context.Background(), cmd("INCR", "k"))
}

func TestEngine_ObserverTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	obs := NewMockObserver(ctrl)
	e, _ := newTestEngine(WithObserver(obs))

	obs.EXPECT().CommandExecuted(gomock.Any(), gomock.Any(), gomock.Any()).Times(2)
	obs.EXPECT().TransactionFinished(2, false).Times(1)
	obs.EXPECT().TransactionFinished(1, true).Times(1)

	ctx := context.Background()
	s := e.NewSession("c1")
	for _, c := range []domain.Command{
		cmd("MULTI"), cmd("SET", "a", "1"), cmd("GET", "a"), cmd("EXEC"),
		cmd("MULTI"), cmd("SET", "b", "1"), cmd("DISCARD"),
	} {
		s.Dispatch(ctx, c)
	}
}

func TestEngine_ObserverSkipsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	obs := NewMockObserver(ctrl)
	e, _ := newTestEngine(WithObserver(obs))

	// Unknown commands and arity errors never reach an executor.
	obs.EXPECT().CommandExecuted(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	do(e, "NOPE")
	do(e, "GET")
}

func TestEngine_Commands(t *testing.T) {
	e, _ := newTestEngine()
	names := e.Commands()
	sort.Strings(names)

	for _, want := range []string{"BLPOP", "DISCARD", "EXEC", "GET", "MULTI", "SET", "XADD", "XREAD"} {
		i := sort.SearchStrings(names, want)
		if i >= len(names) || names[i] != want {
			t.Errorf("Commands() is missing %s", want)
		}
	}
}

func TestEngine_DeadlineFor(t *testing.T) {
	e, store := newTestEngine()
	now := store.Now()

	if d := e.deadlineFor(0, false); !d.IsZero() {
		t.Errorf("deadlineFor(0) = %v, want zero", d)
	}
	if d := e.deadlineFor(time.Second, true); d.After(now.Add(time.Second)) {
		t.Errorf("deadlineFor(noBlock) = %v, want about now", d)
	}
	if d := e.deadlineFor(time.Second, false); d.Before(now.Add(time.Second)) {
		t.Errorf("deadlineFor(1s) = %v, want >= now+1s", d)
	}
}

func TestCommandNames(t *testing.T) {
	names := CommandNames()
	if !slices.IsSorted(names) {
		t.Errorf("CommandNames() not sorted: %v", names)
	}
	for _, want := range []string{"BLPOP", "EXEC", "GET", "XREAD"} {
		if !slices.Contains(names, want) {
			t.Errorf("CommandNames() missing %s", want)
		}
	}
}

func TestEngine_FailureLogCarriesConnID(t *testing.T) {
	var buf bytes.Buffer
	e, _ := newTestEngine(WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	ctx := logger.WithConnID(context.Background(), "kmcl-42")
	e.Execute(ctx, cmd("SET", "k", "v"))
	if reply := e.Execute(ctx, cmd("LPUSH", "k", "x")); !reply.IsError() {
		t.Fatalf("LPUSH on a string = %+v, want error", reply)
	}

	out := buf.String()
	if !strings.Contains(out, "command failed") || !strings.Contains(out, "conn_id=kmcl-42") {
		t.Errorf("log = %q, want failure tagged with conn_id", out)
	}
}
