package fake

import (
	"go.dedis.ch/polls/core/access"
	"go.dedis.ch/polls/core/txn"
)

// Transaction is a fake implementation of a transaction.
//
// - implements txn.Transaction
type Transaction struct {
	txn.Transaction

	Nonce    uint64
	Identity access.Identity
	Args     map[string][]byte
	Unsigned bool
}

// NewTransaction returns a transaction of the identity with the arguments.
func NewTransaction(ident access.Identity, args ...txn.Arg) Transaction {
	tx := Transaction{
		Identity: ident,
		Args:     make(map[string][]byte),
	}

	for _, arg := range args {
		tx.Args[arg.Key] = arg.Value
	}

	return tx
}

// GetID implements txn.Transaction.
func (tx Transaction) GetID() []byte {
	return []byte{0xaa}
}

// GetNonce implements txn.Transaction.
func (tx Transaction) GetNonce() uint64 {
	return tx.Nonce
}

// GetIdentity implements txn.Transaction.
func (tx Transaction) GetIdentity() access.Identity {
	return tx.Identity
}

// GetArg implements txn.Transaction.
func (tx Transaction) GetArg(key string) []byte {
	return tx.Args[key]
}

// IsSigned returns true unless the transaction is marked as unsigned.
func (tx Transaction) IsSigned() bool {
	return !tx.Unsigned
}
