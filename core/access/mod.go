// Package access defines the interfaces for the access control of the
// contracts.
//
// An identity is whoever signed a transaction. A service decides if a set of
// identities is allowed to use a credential, which is the pair of a contract
// and one of its commands.
package access

import (
	"encoding"
	"strings"

	"go.dedis.ch/polls/core/store"
)

// Identity is an abstraction to uniquely identify a signer. The text form is
// the address stored by the contracts.
type Identity interface {
	encoding.TextMarshaler

	// Equal returns true when the other identity is the same.
	Equal(other interface{}) bool
}

// Credential is the identifier of the permission an identity needs to perform
// an action.
type Credential interface {
	// GetID returns the identifier of the credential.
	GetID() []byte

	// GetRule returns the scope of the credential.
	GetRule() string
}

// Service is the access control abstraction.
type Service interface {
	// Match returns nil if the identities are allowed by the credential,
	// otherwise an error.
	Match(store store.Readable, creds Credential, idents ...Identity) error

	// Grant allows the identities to use the credential.
	Grant(store store.Snapshot, creds Credential, idents ...Identity) error
}

// Compile returns a compacted rule from the string segments.
func Compile(segments ...string) string {
	return strings.Join(segments, ":")
}
