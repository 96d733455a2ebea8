// Package prefixed implements a namespaced view of a store. Every key is
// replaced by the hash of the namespace and the key, so that two contracts
// sharing the same state cannot overwrite each other.
package prefixed

import (
	"encoding/binary"

	"go.dedis.ch/polls/core/store"
	"go.dedis.ch/polls/crypto"
)

type readable struct {
	store.Readable
	prefix []byte
}

type writable struct {
	store.Writable
	prefix []byte
}

type snapshot struct {
	*writable
	*readable
}

// NewSnapshot creates a new prefixed Snapshot.
func NewSnapshot(prefix string, snap store.Snapshot) store.Snapshot {
	p := []byte(prefix)
	return &snapshot{
		&writable{snap, p},
		&readable{snap, p},
	}
}

// NewReadable creates a new prefixed Readable.
func NewReadable(prefix string, r store.Readable) store.Readable {
	p := []byte(prefix)
	return &readable{r, p}
}

// Get implements store.Readable. It reads the value of the prefixed key.
func (s *readable) Get(key []byte) ([]byte, error) {
	k := NewPrefixedKey(s.prefix, key)
	return s.Readable.Get(k)
}

// Set implements store.Writable. It writes the value to the prefixed key.
func (s *writable) Set(key []byte, value []byte) error {
	k := NewPrefixedKey(s.prefix, key)
	return s.Writable.Set(k, value)
}

// Delete implements store.Writable. It deletes the prefixed key.
func (s *writable) Delete(key []byte) error {
	k := NewPrefixedKey(s.prefix, key)
	return s.Writable.Delete(k)
}

// NewPrefixedKey creates a 256bit (hashed) key from a prefix and a base key.
func NewPrefixedKey(prefix, key []byte) []byte {
	h := crypto.NewHashFactory(crypto.Sha256).New()

	length := []byte{0, 0}
	binary.LittleEndian.PutUint16(length, uint16(len(prefix)))

	h.Write(length)
	h.Write(prefix)

	length = []byte{0, 0}
	binary.LittleEndian.PutUint16(length, uint16(len(key)))

	h.Write(length)
	h.Write(key)

	return h.Sum(nil)
}
