// Package ordering defines the interface of the ordering service. The
// high-level purpose of this service is to order the transactions and apply
// them one after the other to the state.
//
// An accepted transaction produces events that are appended to a log. The
// observers are notified only once the transaction is committed.
package ordering

import (
	"context"
	"encoding/json"
	"time"

	"go.dedis.ch/polls/core/store"
	"go.dedis.ch/polls/core/txn"
)

// Record is an event committed to the log.
type Record struct {
	// Index is the position of the event in the log, starting from zero.
	Index uint64 `json:"index"`

	// TxID is the hexadecimal identifier of the transaction.
	TxID string `json:"txId"`

	Timestamp time.Time       `json:"timestamp"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
}

// Receipt is the outcome of a transaction. A refused transaction does not get
// a receipt.
type Receipt struct {
	TxID      string
	Nonce     uint64
	Timestamp time.Time
	Accepted  bool
	Message   string
	Events    []Record
}

// Service is the interface of an ordering service.
type Service interface {
	// Submit applies the transaction. It returns an error when the
	// transaction is refused, for instance for a wrong nonce, and a receipt
	// otherwise.
	Submit(ctx context.Context, tx txn.Transaction) (Receipt, error)

	// View runs the function over a read-only state.
	View(fn func(store.Readable) error) error

	// Events iterates over the log starting at the given index.
	Events(from uint64, fn func(Record) error) error

	// Watch returns a channel populated with the records of the committed
	// transactions until the context is done.
	Watch(ctx context.Context) <-chan Record

	Close() error
}
