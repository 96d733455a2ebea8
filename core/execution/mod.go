// Package execution defines the service that applies a transaction to a store
// snapshot.
package execution

import (
	"time"

	"go.dedis.ch/polls/core/store"
	"go.dedis.ch/polls/core/txn"
)

// Step is the input of an execution. It contains the transaction to apply and
// the time the ledger assigned to it.
type Step struct {
	Current txn.Transaction

	// Timestamp is provided by the ledger and is strictly increasing from one
	// step to the next.
	Timestamp time.Time
}

// Event is a notification produced while a transaction is applied. It is made
// visible to the observers only once the transaction is committed.
type Event interface {
	// GetName returns the name of the event.
	GetName() string
}

// Result is the result of a transaction execution.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Message gives a change to the execution to explain why a transaction has
	// failed.
	Message string

	// Events are the notifications of an accepted transaction in the order
	// they were produced.
	Events []Event
}

// Service is the execution service that defines the primitives to execute a
// transaction.
type Service interface {
	// Execute must apply the transaction to the snapshot and return the result
	// of it.
	Execute(snap store.Snapshot, step Step) (Result, error)
}
