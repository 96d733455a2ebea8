package serial

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/polls/core/execution"
	"go.dedis.ch/polls/core/execution/native"
	"go.dedis.ch/polls/core/ordering"
	"go.dedis.ch/polls/core/store"
	"go.dedis.ch/polls/core/store/mem"
	"go.dedis.ch/polls/core/txn"
	"go.dedis.ch/polls/core/txn/signed"
	"go.dedis.ch/polls/crypto/ed25519"
	"go.dedis.ch/polls/internal/testing/fake"
	"golang.org/x/xerrors"
)

const testContractName = "test"

var alice = fake.NewIdentity("alice")

func TestService_Genesis(t *testing.T) {
	srvc := makeService(t)

	err := srvc.Genesis(func(snap store.Snapshot) error {
		return snap.Set([]byte("A"), []byte("B"))
	})
	require.NoError(t, err)

	err = srvc.Genesis(func(store.Snapshot) error { return nil })
	require.True(t, xerrors.Is(err, ErrGenesisDone))
	require.EqualError(t, err, "failed to run genesis: ledger already initialized")

	err = srvc.View(func(r store.Readable) error {
		value, err := r.Get([]byte("A"))
		require.NoError(t, err)
		require.Equal(t, []byte("B"), value)

		return nil
	})
	require.NoError(t, err)
}

func TestService_GenesisFailure(t *testing.T) {
	srvc := makeService(t)

	err := srvc.Genesis(func(snap store.Snapshot) error {
		snap.Set([]byte("A"), []byte("B"))
		return fake.GetError()
	})
	require.EqualError(t, err, fake.Err("failed to run genesis: genesis function failed"))

	// The genesis can run again as nothing was committed.
	err = srvc.Genesis(func(store.Snapshot) error { return nil })
	require.NoError(t, err)

	requireValue(t, srvc, "A", nil)
}

func TestService_Submit(t *testing.T) {
	now := time.Unix(1600000000, 0).UTC()

	srvc := makeService(t, WithClock(func() time.Time { return now }))
	require.NoError(t, srvc.Genesis(func(store.Snapshot) error { return nil }))

	receipt, err := srvc.Submit(context.Background(), makeTx(0, "A", "1"))
	require.NoError(t, err)
	require.True(t, receipt.Accepted)
	require.Equal(t, "aa", receipt.TxID)
	require.Equal(t, now, receipt.Timestamp)
	require.Len(t, receipt.Events, 1)
	require.Equal(t, uint64(0), receipt.Events[0].Index)
	require.Equal(t, "TestEvent", receipt.Events[0].Name)
	require.JSONEq(t, `{"value":"1"}`, string(receipt.Events[0].Data))

	requireValue(t, srvc, "A", []byte("1"))

	nonce, err := srvc.GetNonce(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonce)

	// The clock did not move but the timestamps are strictly increasing.
	receipt, err = srvc.Submit(context.Background(), makeTx(1, "B", "2"))
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Nanosecond), receipt.Timestamp)
	require.Equal(t, uint64(1), receipt.Events[0].Index)
}

func TestService_SubmitRejected(t *testing.T) {
	srvc := makeService(t)
	require.NoError(t, srvc.Genesis(func(store.Snapshot) error { return nil }))

	tx := makeTx(0, "A", "1")
	tx.Args["fail"] = []byte{1}

	receipt, err := srvc.Submit(context.Background(), tx)
	require.NoError(t, err)
	require.False(t, receipt.Accepted)
	require.Equal(t, fake.GetError().Error(), receipt.Message)
	require.Empty(t, receipt.Events)

	// The write of the rejected transaction is discarded and the nonce stays.
	requireValue(t, srvc, "A", nil)

	nonce, err := srvc.GetNonce(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(0), nonce)

	count := 0
	err = srvc.Events(0, func(ordering.Record) error {
		count++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestService_SubmitRefused(t *testing.T) {
	srvc := makeService(t)

	_, err := srvc.Submit(context.Background(), makeTx(0, "A", "1"))
	require.True(t, xerrors.Is(err, ErrNoGenesis))

	require.NoError(t, srvc.Genesis(func(store.Snapshot) error { return nil }))

	_, err = srvc.Submit(context.Background(), makeTx(3, "A", "1"))
	require.EqualError(t, err, "transaction refused: nonce '3' != '0'")

	tx := makeTx(0, "A", "1")
	tx.Args[native.ContractArg] = []byte("unknown")

	_, err = srvc.Submit(context.Background(), tx)
	require.EqualError(t, err,
		"transaction refused: failed to execute tx: unknown contract 'unknown'")

	tx = makeTx(0, "A", "1")
	tx.Identity = fake.NewBadIdentity()

	_, err = srvc.Submit(context.Background(), tx)
	require.EqualError(t, err, fake.Err("transaction refused: failed to marshal identity"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = srvc.Submit(ctx, makeTx(0, "A", "1"))
	require.True(t, xerrors.Is(err, context.Canceled))

	requireValue(t, srvc, "A", nil)
}

func TestService_SubmitUnsigned(t *testing.T) {
	srvc := makeService(t)
	require.NoError(t, srvc.Genesis(func(store.Snapshot) error { return nil }))

	tx := makeTx(0, "A", "1")
	tx.Unsigned = true

	_, err := srvc.Submit(context.Background(), tx)
	require.True(t, xerrors.Is(err, ErrUnsigned))
	require.EqualError(t, err, "transaction refused: transaction not signed")

	// A transaction without the signature check is refused too.
	_, err = srvc.Submit(context.Background(), unverifiedTx{Transaction: makeTx(0, "A", "1")})
	require.True(t, xerrors.Is(err, ErrUnsigned))

	signer := ed25519.NewSigner()

	stx, err := signed.NewTransaction(0, signer.GetPublicKey(),
		signed.WithArg(native.ContractArg, []byte(testContractName)),
		signed.WithArg("key", []byte("A")),
		signed.WithArg("value", []byte("1")))
	require.NoError(t, err)

	_, err = srvc.Submit(context.Background(), stx)
	require.True(t, xerrors.Is(err, ErrUnsigned))

	requireValue(t, srvc, "A", nil)

	require.NoError(t, stx.Sign(signer))

	receipt, err := srvc.Submit(context.Background(), stx)
	require.NoError(t, err)
	require.True(t, receipt.Accepted)

	requireValue(t, srvc, "A", []byte("1"))
}

func TestService_Events(t *testing.T) {
	srvc := makeService(t)
	require.NoError(t, srvc.Genesis(func(store.Snapshot) error { return nil }))

	err := srvc.Events(0, func(ordering.Record) error {
		return xerrors.New("no event expected")
	})
	require.NoError(t, err)

	for i, key := range []string{"A", "B", "C"} {
		_, err := srvc.Submit(context.Background(), makeTx(uint64(i), key, key))
		require.NoError(t, err)
	}

	var values []string
	err = srvc.Events(1, func(record ordering.Record) error {
		var event testEvent
		require.NoError(t, json.Unmarshal(record.Data, &event))

		values = append(values, event.Value)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"B", "C"}, values)

	err = srvc.Events(0, func(ordering.Record) error {
		return fake.GetError()
	})
	require.EqualError(t, err, fake.Err("callback failed"))
}

func TestService_Watch(t *testing.T) {
	srvc := makeService(t)
	require.NoError(t, srvc.Genesis(func(store.Snapshot) error { return nil }))

	ctx, cancel := context.WithCancel(context.Background())

	records := srvc.Watch(ctx)
	require.Equal(t, 1, srvc.watcher.Len())

	tx := makeTx(0, "A", "1")
	tx.Args["fail"] = []byte{1}

	_, err := srvc.Submit(context.Background(), tx)
	require.NoError(t, err)

	_, err = srvc.Submit(context.Background(), makeTx(0, "A", "1"))
	require.NoError(t, err)

	select {
	case record := <-records:
		require.Equal(t, uint64(0), record.Index)
	case <-time.After(time.Second):
		t.Fatal("record not received")
	}

	cancel()

	_, more := <-records
	require.False(t, more)
	require.Equal(t, 0, srvc.watcher.Len())
}

func TestService_Log(t *testing.T) {
	logger, check := fake.CheckLog("transaction accepted")

	srvc := makeService(t, WithLogger(logger))
	require.NoError(t, srvc.Genesis(func(store.Snapshot) error { return nil }))

	_, err := srvc.Submit(context.Background(), makeTx(0, "A", "1"))
	require.NoError(t, err)

	check(t)
}

func TestService_Close(t *testing.T) {
	srvc := makeService(t)

	require.NoError(t, srvc.Close())

	err := srvc.View(func(store.Readable) error { return nil })
	require.EqualError(t, err, "database closed")
}

func TestService_ViewEmpty(t *testing.T) {
	srvc := makeService(t)

	requireValue(t, srvc, "A", nil)
}

// -----------------------------------------------------------------------------
// Utility functions

func makeService(t *testing.T, opts ...Option) *Service {
	exec := native.NewExecution()
	exec.Set(testContractName, testContract{})

	return NewService(mem.NewDB(), exec, opts...)
}

func makeTx(nonce uint64, key, value string) fake.Transaction {
	tx := fake.NewTransaction(alice,
		txn.Arg{Key: native.ContractArg, Value: []byte(testContractName)},
		txn.Arg{Key: "key", Value: []byte(key)},
		txn.Arg{Key: "value", Value: []byte(value)})

	tx.Nonce = nonce

	return tx
}

func requireValue(t *testing.T, srvc *Service, key string, expected []byte) {
	err := srvc.View(func(r store.Readable) error {
		value, err := r.Get([]byte(key))
		require.NoError(t, err)
		require.Equal(t, expected, value)

		return nil
	})
	require.NoError(t, err)
}

type testEvent struct {
	Value string `json:"value"`
}

func (testEvent) GetName() string {
	return "TestEvent"
}

type testContract struct{}

func (testContract) Execute(snap store.Snapshot, step execution.Step) ([]execution.Event, error) {
	err := snap.Set(step.Current.GetArg("key"), step.Current.GetArg("value"))
	if err != nil {
		return nil, err
	}

	if step.Current.GetArg("fail") != nil {
		return nil, fake.GetError()
	}

	return []execution.Event{testEvent{Value: string(step.Current.GetArg("value"))}}, nil
}

func (testContract) UID() string {
	return "TEST"
}

type unverifiedTx struct {
	txn.Transaction
}
