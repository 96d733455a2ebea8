package mem

import (
	"sort"

	"go.dedis.ch/polls/core/store"
	"golang.org/x/xerrors"
)

type item struct {
	value   []byte
	deleted bool
}

// Staging records the writes on top of a parent store. Reads look up the
// staged items first and fall back to the parent.
//
// - implements store.Snapshot
type Staging struct {
	parent store.Readable
	items  map[string]item
}

// NewStaging returns an empty staging area over the parent.
func NewStaging(parent store.Readable) *Staging {
	return &Staging{
		parent: parent,
		items:  make(map[string]item),
	}
}

// Get implements store.Readable.
func (s *Staging) Get(key []byte) ([]byte, error) {
	it, found := s.items[string(key)]
	if found {
		if it.deleted {
			return nil, nil
		}

		return it.value, nil
	}

	value, err := s.parent.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("parent: %v", err)
	}

	return value, nil
}

// Set implements store.Writable.
func (s *Staging) Set(key, value []byte) error {
	s.items[string(key)] = item{value: append([]byte{}, value...)}

	return nil
}

// Delete implements store.Writable.
func (s *Staging) Delete(key []byte) error {
	s.items[string(key)] = item{deleted: true}

	return nil
}

// Len returns the number of staged writes.
func (s *Staging) Len() int {
	return len(s.items)
}

// Commit applies the staged writes to the destination in the order of the
// keys.
func (s *Staging) Commit(dst store.Writable) error {
	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		it := s.items[key]

		var err error
		if it.deleted {
			err = dst.Delete([]byte(key))
		} else {
			err = dst.Set([]byte(key), it.value)
		}

		if err != nil {
			return xerrors.Errorf("failed to apply key %#x: %v", key, err)
		}
	}

	return nil
}
