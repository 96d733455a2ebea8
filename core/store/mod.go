// Package store defines the primitives of a simple key/value storage.
//
// A snapshot is the view a contract gets of the state while a transaction is
// applied. Implementations decide when and how the writes are committed.
package store

// Readable is the interface for a readable store.
type Readable interface {
	// Get returns the value of the key, or nil if the key is not set.
	Get(key []byte) ([]byte, error)
}

// Writable is the interface for a writable store.
type Writable interface {
	Set(key []byte, value []byte) error

	Delete(key []byte) error
}

// Snapshot is a state of the store that can be read and write independently. A
// write is applied only to the snapshot reference.
type Snapshot interface {
	Readable
	Writable
}

// Transaction is a generic interface that store implementations can use to
// provide atomicity.
type Transaction interface {
	// OnCommit adds a callback to be executed after the transaction
	// successfully commits.
	OnCommit(func())
}
