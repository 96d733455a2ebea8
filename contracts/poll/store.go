package poll

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"go.dedis.ch/polls/contracts/poll/types"
	"go.dedis.ch/polls/core/store"
	"go.dedis.ch/polls/core/store/prefixed"
	"golang.org/x/xerrors"
)

var (
	countKey    = []byte("count")
	pollPrefix  = []byte("poll:")
	voterPrefix = []byte("voter:")

	votedMark = []byte{1}
)

// pollReader reads the records of the contract.
type pollReader struct {
	r store.Readable
}

func newPollReader(r store.Readable) pollReader {
	return pollReader{
		r: prefixed.NewReadable(ContractName, r),
	}
}

// Count returns the number of polls created so far. Identifiers are dense from
// zero, so it is also the identifier of the next poll.
func (pr pollReader) Count() (uint64, error) {
	value, err := pr.r.Get(countKey)
	if err != nil {
		return 0, xerrors.Errorf("failed to read count: %v", err)
	}

	if len(value) == 0 {
		return 0, nil
	}

	if len(value) != 8 {
		return 0, xerrors.Errorf("invalid count length %d", len(value))
	}

	return binary.BigEndian.Uint64(value), nil
}

// Get returns the poll with the given identifier.
func (pr pollReader) Get(id uint64) (types.Poll, error) {
	value, err := pr.r.Get(pollKey(id))
	if err != nil {
		return types.Poll{}, xerrors.Errorf("failed to read poll: %v", err)
	}

	if len(value) == 0 {
		return types.Poll{}, xerrors.Errorf("poll %d: %w", id, ErrNotFound)
	}

	var poll types.Poll

	err = json.Unmarshal(value, &poll)
	if err != nil {
		return types.Poll{}, xerrors.Errorf("failed to unmarshal poll: %v", err)
	}

	return poll, nil
}

// HasVoted returns true if the voter already voted in the poll.
func (pr pollReader) HasVoted(id uint64, voter string) (bool, error) {
	value, err := pr.r.Get(voterKey(id, voter))
	if err != nil {
		return false, xerrors.Errorf("failed to read voter: %v", err)
	}

	return len(value) > 0, nil
}

// PollStore is the storage of the polls. It enforces the invariants of a
// single poll record, but it does not check who calls it.
type PollStore struct {
	pollReader

	snap store.Snapshot
}

// NewPollStore returns a store that keeps its records in the namespace of the
// contract in the snapshot.
func NewPollStore(snap store.Snapshot) PollStore {
	return PollStore{
		pollReader: newPollReader(snap),
		snap:       prefixed.NewSnapshot(ContractName, snap),
	}
}

// Create allocates the next identifier and stores a new open poll. The list of
// candidates must be non-empty without blank or duplicated entries.
func (s PollStore) Create(title string, candidates []string, createdAt time.Time) (uint64, error) {
	if len(candidates) == 0 {
		return 0, xerrors.Errorf("no candidates: %w", ErrInvalidCandidate)
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c == "" {
			return 0, xerrors.Errorf("empty candidate: %w", ErrInvalidCandidate)
		}

		_, found := seen[c]
		if found {
			return 0, xerrors.Errorf("duplicate candidate '%s': %w", c, ErrInvalidCandidate)
		}

		seen[c] = struct{}{}
	}

	id, err := s.Count()
	if err != nil {
		return 0, err
	}

	poll := types.Poll{
		ID:         id,
		Title:      title,
		Candidates: append([]string{}, candidates...),
		Status:     types.Open,
		CreatedAt:  createdAt,
		Tally:      make([]uint64, len(candidates)),
	}

	err = s.put(poll)
	if err != nil {
		return 0, err
	}

	count := make([]byte, 8)
	binary.BigEndian.PutUint64(count, id+1)

	err = s.snap.Set(countKey, count)
	if err != nil {
		return 0, xerrors.Errorf("failed to write count: %v", err)
	}

	return id, nil
}

// RecordVote registers the voter and increments the tally of the candidate.
// The caller is responsible for checking that the poll is open.
func (s PollStore) RecordVote(id uint64, voter, candidate string) error {
	poll, err := s.Get(id)
	if err != nil {
		return err
	}

	voted, err := s.HasVoted(id, voter)
	if err != nil {
		return err
	}

	if voted {
		return xerrors.Errorf("poll %d: %w", id, ErrAlreadyVoted)
	}

	index := poll.IndexOf(candidate)
	if index < 0 {
		return xerrors.Errorf("candidate '%s': %w", candidate, ErrNotFound)
	}

	poll.Tally[index]++
	poll.Voters++

	err = s.put(poll)
	if err != nil {
		return err
	}

	err = s.snap.Set(voterKey(id, voter), votedMark)
	if err != nil {
		return xerrors.Errorf("failed to write voter: %v", err)
	}

	return nil
}

// Close moves an open poll to the closed status.
func (s PollStore) Close(id uint64) error {
	poll, err := s.Get(id)
	if err != nil {
		return err
	}

	if !poll.Status.IsOpen() {
		return xerrors.Errorf("poll %d: %w", id, ErrAlreadyClosed)
	}

	poll.Status = types.Closed

	return s.put(poll)
}

// SetWinners stores the winners of a closed poll. Winners are set only once.
func (s PollStore) SetWinners(id uint64, winners []string) error {
	poll, err := s.Get(id)
	if err != nil {
		return err
	}

	if poll.IsDeclared() {
		return xerrors.Errorf("poll %d: %w", id, ErrAlreadyDeclared)
	}

	if poll.Status.IsOpen() {
		return xerrors.Errorf("poll %d: %w", id, ErrPollMustBeClosed)
	}

	if len(winners) == 0 {
		return xerrors.Errorf("no winners: %w", ErrInvalidCandidate)
	}

	for _, w := range winners {
		if poll.IndexOf(w) < 0 {
			return xerrors.Errorf("winner '%s': %w", w, ErrInvalidCandidate)
		}
	}

	poll.Winners = append([]string{}, winners...)

	return s.put(poll)
}

func (s PollStore) put(poll types.Poll) error {
	value, err := json.Marshal(poll)
	if err != nil {
		return xerrors.Errorf("failed to marshal poll: %v", err)
	}

	err = s.snap.Set(pollKey(poll.ID), value)
	if err != nil {
		return xerrors.Errorf("failed to write poll: %v", err)
	}

	return nil
}

func pollKey(id uint64) []byte {
	key := make([]byte, len(pollPrefix)+8)
	copy(key, pollPrefix)
	binary.BigEndian.PutUint64(key[len(pollPrefix):], id)

	return key
}

func voterKey(id uint64, voter string) []byte {
	key := make([]byte, len(voterPrefix)+8, len(voterPrefix)+8+len(voter))
	copy(key, voterPrefix)
	binary.BigEndian.PutUint64(key[len(voterPrefix):], id)

	return append(key, voter...)
}
