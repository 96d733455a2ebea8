// Package serial implements an ordering service that applies the transactions
// one at a time on a single node.
//
// Each transaction runs inside one database transaction: the nonce is checked,
// the execution writes to a staging area that is flushed only when the
// transaction is accepted, and the events are appended to the log. Observers
// are notified after the commit.
package serial

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/polls"
	"go.dedis.ch/polls/core"
	"go.dedis.ch/polls/core/access"
	"go.dedis.ch/polls/core/execution"
	"go.dedis.ch/polls/core/ordering"
	"go.dedis.ch/polls/core/store"
	"go.dedis.ch/polls/core/store/kv"
	"go.dedis.ch/polls/core/store/mem"
	"go.dedis.ch/polls/core/txn"
	"golang.org/x/xerrors"
)

var (
	stateBucket  = []byte("polls:state")
	metaBucket   = []byte("polls:meta")
	eventsBucket = []byte("polls:events")

	genesisKey   = []byte("genesis")
	timestampKey = []byte("timestamp")
	countKey     = []byte("events")
	noncePrefix  = []byte("nonce:")
)

var (
	// ErrNoGenesis is returned when a transaction is submitted before the
	// genesis.
	ErrNoGenesis = xerrors.New("ledger not initialized")

	// ErrGenesisDone is returned when the genesis is run a second time.
	ErrGenesisDone = xerrors.New("ledger already initialized")

	// ErrUnsigned is returned when a transaction does not carry a verified
	// signature of its identity.
	ErrUnsigned = xerrors.New("transaction not signed")
)

// signedTransaction is implemented by transactions that verify the signature
// of their identity.
type signedTransaction interface {
	IsSigned() bool
}

var (
	promTxs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "polls_ledger_transactions_total",
		Help: "number of transactions submitted to the ledger",
	}, []string{"outcome"})

	promEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "polls_ledger_events",
		Help: "number of events in the log",
	})
)

func init() {
	polls.PromCollectors = append(polls.PromCollectors, promTxs, promEvents)
}

// Option is the type of option to set some fields of the service.
type Option func(*Service)

// WithClock sets the clock of the ledger. The timestamps are still forced to
// be strictly increasing.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLogger sets the logger of the service.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service is the serializing ordering service.
//
// - implements ordering.Service
type Service struct {
	sync.Mutex

	db      kv.DB
	exec    execution.Service
	watcher *core.Watcher
	clock   func() time.Time
	logger  zerolog.Logger
}

// NewService returns a new ordering service applying the transactions to the
// database with the execution service.
func NewService(db kv.DB, exec execution.Service, opts ...Option) *Service {
	s := &Service{
		db:      db,
		exec:    exec,
		watcher: core.NewWatcher(),
		clock:   time.Now,
		logger:  polls.Logger.With().Str("component", "ledger").Logger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Genesis initializes the state with the function. It can only be done once
// per database.
func (s *Service) Genesis(fn func(store.Snapshot) error) error {
	s.Lock()
	defer s.Unlock()

	err := s.db.Update(func(tx kv.WritableTx) error {
		meta, err := tx.GetBucketOrCreate(metaBucket)
		if err != nil {
			return err
		}

		if meta.Get(genesisKey) != nil {
			return ErrGenesisDone
		}

		state, err := tx.GetBucketOrCreate(stateBucket)
		if err != nil {
			return err
		}

		staging := mem.NewStaging(kv.NewSnapshot(state))

		err = fn(staging)
		if err != nil {
			return xerrors.Errorf("genesis function failed: %v", err)
		}

		err = staging.Commit(kv.NewSnapshot(state))
		if err != nil {
			return xerrors.Errorf("failed to commit genesis: %v", err)
		}

		return meta.Set(genesisKey, []byte{1})
	})
	if err != nil {
		return xerrors.Errorf("failed to run genesis: %w", err)
	}

	s.logger.Info().Msg("genesis done")

	return nil
}

// Submit implements ordering.Service. It applies the transaction to the state.
// A transaction with a wrong nonce is refused without effect, and a rejected
// transaction only gets a receipt.
func (s *Service) Submit(ctx context.Context, tx txn.Transaction) (ordering.Receipt, error) {
	err := ctx.Err()
	if err != nil {
		return ordering.Receipt{}, xerrors.Errorf("context: %w", err)
	}

	s.Lock()
	defer s.Unlock()

	// The context might be done while waiting for the lock.
	err = ctx.Err()
	if err != nil {
		return ordering.Receipt{}, xerrors.Errorf("context: %w", err)
	}

	reqID := xid.New().String()

	var receipt ordering.Receipt

	err = s.db.Update(func(wtx kv.WritableTx) error {
		var err error
		receipt, err = s.apply(wtx, tx)
		return err
	})
	if err != nil {
		promTxs.WithLabelValues("refused").Inc()

		s.logger.Warn().Str("request", reqID).Err(err).Msg("transaction refused")

		return ordering.Receipt{}, xerrors.Errorf("transaction refused: %w", err)
	}

	if receipt.Accepted {
		promTxs.WithLabelValues("accepted").Inc()

		if len(receipt.Events) > 0 {
			last := receipt.Events[len(receipt.Events)-1]
			promEvents.Set(float64(last.Index + 1))
		}

		s.logger.Info().
			Str("request", reqID).
			Str("tx", receipt.TxID).
			Int("events", len(receipt.Events)).
			Msg("transaction accepted")
	} else {
		promTxs.WithLabelValues("rejected").Inc()

		s.logger.Info().
			Str("request", reqID).
			Str("tx", receipt.TxID).
			Str("reason", receipt.Message).
			Msg("transaction rejected")
	}

	return receipt, nil
}

func (s *Service) apply(wtx kv.WritableTx, tx txn.Transaction) (ordering.Receipt, error) {
	meta, err := wtx.GetBucketOrCreate(metaBucket)
	if err != nil {
		return ordering.Receipt{}, err
	}

	if meta.Get(genesisKey) == nil {
		return ordering.Receipt{}, ErrNoGenesis
	}

	verified, ok := tx.(signedTransaction)
	if !ok || !verified.IsSigned() {
		return ordering.Receipt{}, ErrUnsigned
	}

	key, err := nonceKey(tx.GetIdentity())
	if err != nil {
		return ordering.Receipt{}, err
	}

	nonce := readUint64(meta.Get(key))
	if tx.GetNonce() != nonce {
		return ordering.Receipt{}, xerrors.Errorf("nonce '%d' != '%d'", tx.GetNonce(), nonce)
	}

	now := s.clock().UTC()

	last := readTime(meta.Get(timestampKey))
	if !now.After(last) {
		now = last.Add(time.Nanosecond)
	}

	state, err := wtx.GetBucketOrCreate(stateBucket)
	if err != nil {
		return ordering.Receipt{}, err
	}

	staging := mem.NewStaging(kv.NewSnapshot(state))

	step := execution.Step{
		Current:   tx,
		Timestamp: now,
	}

	res, err := s.exec.Execute(staging, step)
	if err != nil {
		return ordering.Receipt{}, xerrors.Errorf("failed to execute tx: %v", err)
	}

	receipt := ordering.Receipt{
		TxID:      hex.EncodeToString(tx.GetID()),
		Nonce:     tx.GetNonce(),
		Timestamp: now,
		Accepted:  res.Accepted,
		Message:   res.Message,
	}

	if !res.Accepted {
		return receipt, nil
	}

	err = staging.Commit(kv.NewSnapshot(state))
	if err != nil {
		return ordering.Receipt{}, xerrors.Errorf("failed to commit state: %v", err)
	}

	err = meta.Set(key, writeUint64(nonce+1))
	if err != nil {
		return ordering.Receipt{}, xerrors.Errorf("failed to write nonce: %v", err)
	}

	err = meta.Set(timestampKey, writeUint64(uint64(now.UnixNano())))
	if err != nil {
		return ordering.Receipt{}, xerrors.Errorf("failed to write timestamp: %v", err)
	}

	receipt.Events, err = s.appendEvents(wtx, meta, receipt, res.Events)
	if err != nil {
		return ordering.Receipt{}, err
	}

	records := receipt.Events

	wtx.OnCommit(func() {
		for _, record := range records {
			s.watcher.Notify(record)
		}
	})

	return receipt, nil
}

func (s *Service) appendEvents(wtx kv.WritableTx, meta kv.Bucket,
	receipt ordering.Receipt, events []execution.Event) ([]ordering.Record, error) {

	if len(events) == 0 {
		return nil, nil
	}

	bucket, err := wtx.GetBucketOrCreate(eventsBucket)
	if err != nil {
		return nil, err
	}

	index := readUint64(meta.Get(countKey))

	records := make([]ordering.Record, len(events))

	for i, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return nil, xerrors.Errorf("failed to marshal event: %v", err)
		}

		records[i] = ordering.Record{
			Index:     index,
			TxID:      receipt.TxID,
			Timestamp: receipt.Timestamp,
			Name:      event.GetName(),
			Data:      data,
		}

		value, err := json.Marshal(records[i])
		if err != nil {
			return nil, xerrors.Errorf("failed to marshal record: %v", err)
		}

		err = bucket.Set(writeUint64(index), value)
		if err != nil {
			return nil, xerrors.Errorf("failed to write record: %v", err)
		}

		index++
	}

	err = meta.Set(countKey, writeUint64(index))
	if err != nil {
		return nil, xerrors.Errorf("failed to write count: %v", err)
	}

	return records, nil
}

// GetNonce returns the nonce expected for the next transaction of the
// identity.
//
// - implements signed.Client
func (s *Service) GetNonce(ident access.Identity) (uint64, error) {
	key, err := nonceKey(ident)
	if err != nil {
		return 0, err
	}

	var nonce uint64

	err = s.db.View(func(tx kv.ReadableTx) error {
		meta := tx.GetBucket(metaBucket)
		if meta != nil {
			nonce = readUint64(meta.Get(key))
		}

		return nil
	})
	if err != nil {
		return 0, xerrors.Errorf("failed to read nonce: %v", err)
	}

	return nonce, nil
}

// View implements ordering.Service. It runs the function over the committed
// state.
func (s *Service) View(fn func(store.Readable) error) error {
	return s.db.View(func(tx kv.ReadableTx) error {
		bucket := tx.GetBucket(stateBucket)
		if bucket == nil {
			return fn(emptyReadable{})
		}

		return fn(kv.NewSnapshot(bucket))
	})
}

// Events implements ordering.Service. It iterates over the log in order,
// starting at the given index.
func (s *Service) Events(from uint64, fn func(ordering.Record) error) error {
	return s.db.View(func(tx kv.ReadableTx) error {
		bucket := tx.GetBucket(eventsBucket)
		if bucket == nil {
			return nil
		}

		return bucket.Scan(nil, func(key, value []byte) error {
			if readUint64(key) < from {
				return nil
			}

			var record ordering.Record

			err := json.Unmarshal(value, &record)
			if err != nil {
				return xerrors.Errorf("failed to unmarshal record: %v", err)
			}

			return fn(record)
		})
	})
}

// Watch implements ordering.Service. The channel is closed when the context is
// done. Observers are notified while the ledger is locked, so a slow reader
// delays the next transaction.
func (s *Service) Watch(ctx context.Context) <-chan ordering.Record {
	obs := observer{
		ctx: ctx,
		ch:  make(chan ordering.Record, 10),
	}

	s.watcher.Add(obs)

	go func() {
		<-ctx.Done()

		s.Lock()
		s.watcher.Remove(obs)
		close(obs.ch)
		s.Unlock()
	}()

	return obs.ch
}

// Close implements ordering.Service. It closes the database.
func (s *Service) Close() error {
	s.Lock()
	defer s.Unlock()

	err := s.db.Close()
	if err != nil {
		return xerrors.Errorf("failed to close db: %v", err)
	}

	return nil
}

func nonceKey(ident access.Identity) ([]byte, error) {
	text, err := ident.MarshalText()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	return append(append([]byte{}, noncePrefix...), text...), nil
}

func readUint64(value []byte) uint64 {
	if len(value) != 8 {
		return 0
	}

	return binary.BigEndian.Uint64(value)
}

func writeUint64(v uint64) []byte {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, v)

	return buffer
}

func readTime(value []byte) time.Time {
	if len(value) != 8 {
		return time.Time{}
	}

	return time.Unix(0, int64(binary.BigEndian.Uint64(value))).UTC()
}

type emptyReadable struct{}

func (emptyReadable) Get([]byte) ([]byte, error) {
	return nil, nil
}
