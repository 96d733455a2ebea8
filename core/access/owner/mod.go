// Package owner implements an access control service where a single identity,
// the owner, is granted once and for all.
//
// The owner is stored in the state under the identifier of the credential so
// it survives restarts of the ledger. Identities are compared by their text
// form.
package owner

import (
	"go.dedis.ch/polls/core/access"
	"go.dedis.ch/polls/core/store"
	"golang.org/x/xerrors"
)

var keyPrefix = []byte("access:owner:")

// Service is the owner access control service.
//
// - implements access.Service
type Service struct{}

// NewService returns a new owner access service.
func NewService() Service {
	return Service{}
}

// Match implements access.Service. It returns nil if one of the identities is
// the owner of the credential.
func (srvc Service) Match(store store.Readable, creds access.Credential, idents ...access.Identity) error {
	owner, err := srvc.GetOwner(store, creds)
	if err != nil {
		return err
	}

	for _, ident := range idents {
		text, err := ident.MarshalText()
		if err != nil {
			return xerrors.Errorf("failed to marshal identity: %v", err)
		}

		if string(text) == owner {
			return nil
		}
	}

	return xerrors.Errorf("%v is not the owner of '%s'", idents, creds.GetRule())
}

// Grant implements access.Service. It sets the owner of the credential. It
// must be exactly one identity and it can only be set once.
func (srvc Service) Grant(store store.Snapshot, creds access.Credential, idents ...access.Identity) error {
	if len(idents) != 1 {
		return xerrors.Errorf("expected one identity but got %d", len(idents))
	}

	key := makeKey(creds)

	current, err := store.Get(key)
	if err != nil {
		return xerrors.Errorf("failed to read owner: %v", err)
	}

	if len(current) > 0 {
		return xerrors.Errorf("owner of '%s' is already set", creds.GetRule())
	}

	text, err := idents[0].MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal identity: %v", err)
	}

	if len(text) == 0 {
		return xerrors.New("empty identity")
	}

	err = store.Set(key, text)
	if err != nil {
		return xerrors.Errorf("failed to store owner: %v", err)
	}

	return nil
}

// GetOwner returns the text of the owner of the credential.
func (srvc Service) GetOwner(store store.Readable, creds access.Credential) (string, error) {
	value, err := store.Get(makeKey(creds))
	if err != nil {
		return "", xerrors.Errorf("failed to read owner: %v", err)
	}

	if len(value) == 0 {
		return "", xerrors.Errorf("no owner for '%s'", creds.GetRule())
	}

	return string(value), nil
}

func makeKey(creds access.Credential) []byte {
	return append(append([]byte{}, keyPrefix...), creds.GetID()...)
}
