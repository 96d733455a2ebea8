// Package mem implements in-memory storage primitives.
//
// DB is a key/value database living in memory. Writable transactions work on a
// copy of the buckets they touch and only replace the originals once the
// transaction succeeds, which makes them atomic as the bbolt ones.
//
// Staging is an overlay on top of a readable store that records the writes of
// a transaction so that they can be applied, or dropped, as a whole.
package mem

import (
	"bytes"
	"sort"
	"sync"

	"go.dedis.ch/polls/core/store/kv"
	"golang.org/x/xerrors"
)

// DB is an in-memory key/value database.
//
// - implements kv.DB
type DB struct {
	sync.RWMutex

	buckets map[string]*bucket
	closed  bool
}

// NewDB returns a new empty database.
func NewDB() *DB {
	return &DB{
		buckets: make(map[string]*bucket),
	}
}

// View implements kv.DB. It executes the read-only transaction.
func (db *DB) View(fn func(kv.ReadableTx) error) error {
	db.RLock()
	defer db.RUnlock()

	if db.closed {
		return xerrors.New("database closed")
	}

	return fn(&readTx{db: db})
}

// Update implements kv.DB. It executes the transaction on copies of the
// buckets and applies them only if the function returns nil. The commit
// callbacks are executed after the new state is visible.
func (db *DB) Update(fn func(kv.WritableTx) error) error {
	db.Lock()

	if db.closed {
		db.Unlock()
		return xerrors.New("database closed")
	}

	tx := &writeTx{
		readTx:  readTx{db: db},
		touched: make(map[string]*bucket),
	}

	err := fn(tx)
	if err != nil {
		db.Unlock()
		return err
	}

	for name, b := range tx.touched {
		db.buckets[name] = b
	}

	db.Unlock()

	for _, callback := range tx.callbacks {
		callback()
	}

	return nil
}

// Close implements kv.DB. It releases the buckets.
func (db *DB) Close() error {
	db.Lock()
	defer db.Unlock()

	db.closed = true
	db.buckets = nil

	return nil
}

// readTx is a read-only transaction over the committed buckets.
//
// - implements kv.ReadableTx
type readTx struct {
	db *DB
}

// GetBucket implements kv.ReadableTx. It returns the bucket if it exists,
// otherwise nil.
func (tx *readTx) GetBucket(name []byte) kv.Bucket {
	b, found := tx.db.buckets[string(name)]
	if !found {
		return nil
	}

	return b
}

// writeTx is a writable transaction which works on copies of the buckets.
//
// - implements kv.WritableTx
type writeTx struct {
	readTx

	touched   map[string]*bucket
	callbacks []func()
}

// GetBucket implements kv.ReadableTx. It returns the copy of the bucket if the
// transaction already opened it.
func (tx *writeTx) GetBucket(name []byte) kv.Bucket {
	b, err := tx.open(name, false)
	if err != nil || b == nil {
		return nil
	}

	return b
}

// GetBucketOrCreate implements kv.WritableTx. It returns the bucket of the
// given name, or creates it if it does not exist.
func (tx *writeTx) GetBucketOrCreate(name []byte) (kv.Bucket, error) {
	if len(name) == 0 {
		return nil, xerrors.New("bucket name required")
	}

	return tx.open(name, true)
}

// OnCommit implements store.Transaction.
func (tx *writeTx) OnCommit(fn func()) {
	tx.callbacks = append(tx.callbacks, fn)
}

func (tx *writeTx) open(name []byte, create bool) (*bucket, error) {
	key := string(name)

	b, found := tx.touched[key]
	if found {
		return b, nil
	}

	origin, found := tx.db.buckets[key]
	if !found && !create {
		return nil, nil
	}

	b = newBucket()
	if found {
		for k, v := range origin.values {
			b.values[k] = v
		}
	}

	tx.touched[key] = b

	return b, nil
}

// bucket is a map of values.
//
// - implements kv.Bucket
type bucket struct {
	values map[string][]byte
}

func newBucket() *bucket {
	return &bucket{
		values: make(map[string][]byte),
	}
}

// Get implements kv.Bucket.
func (b *bucket) Get(key []byte) []byte {
	return b.values[string(key)]
}

// Set implements kv.Bucket. The value is copied.
func (b *bucket) Set(key, value []byte) error {
	b.values[string(key)] = append([]byte{}, value...)

	return nil
}

// Delete implements kv.Bucket.
func (b *bucket) Delete(key []byte) error {
	delete(b.values, string(key))

	return nil
}

// ForEach implements kv.Bucket. It iterates over the keys in the lexicographic
// order, like the bbolt implementation.
func (b *bucket) ForEach(fn func(k, v []byte) error) error {
	return b.Scan(nil, fn)
}

// Scan implements kv.Bucket. It iterates over the keys matching the prefix in
// the lexicographic order.
func (b *bucket) Scan(prefix []byte, fn func(k, v []byte) error) error {
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	for _, k := range keys {
		err := fn([]byte(k), b.values[k])
		if err != nil {
			return xerrors.Errorf("callback failed: %v", err)
		}
	}

	return nil
}
