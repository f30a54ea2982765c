package engine

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

import "time"

// Observer receives execution events, typically to export metrics.
type Observer interface {
	// CommandExecuted is called once per executed command.
	CommandExecuted(name string, elapsed time.Duration, failed bool)

	// TransactionFinished is called when EXEC or DISCARD ends a transaction.
	TransactionFinished(queued int, discarded bool)
}

type nopObserver struct{}

func (nopObserver) CommandExecuted(string, time.Duration, bool) {}
func (nopObserver) TransactionFinished(int, bool)               {}
