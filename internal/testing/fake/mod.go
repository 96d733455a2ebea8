// Package fake provides fake implementations for interfaces commonly used in
// the repository.
//
// The implementations offer configuration to return errors when it is needed by
// the unit test.
package fake

import (
	"fmt"

	"golang.org/x/xerrors"
)

var fakeErr = xerrors.New("fake error")

// GetError returns the fake error.
func GetError() error {
	return fakeErr
}

// Err returns the expected message of an error wrapping the fake error.
func Err(msg string) string {
	return fmt.Sprintf("%s: %v", msg, fakeErr)
}

// Identity is a fake identity identified by its text.
//
// - implements access.Identity
type Identity struct {
	Text string
	Err  error
}

// NewIdentity returns a new identity with the given text.
func NewIdentity(text string) Identity {
	return Identity{Text: text}
}

// NewBadIdentity returns an identity that cannot be marshaled.
func NewBadIdentity() Identity {
	return Identity{Err: fakeErr}
}

// MarshalText implements encoding.TextMarshaler.
func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.Text), i.Err
}

// Equal implements access.Identity.
func (i Identity) Equal(other interface{}) bool {
	o, ok := other.(Identity)
	return ok && o.Text == i.Text
}

// String implements fmt.Stringer.
func (i Identity) String() string {
	return "fake." + i.Text
}
