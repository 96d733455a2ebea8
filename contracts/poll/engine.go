package poll

import (
	"time"

	"go.dedis.ch/polls"
	"go.dedis.ch/polls/contracts/poll/types"
	"go.dedis.ch/polls/core/access"
	"go.dedis.ch/polls/core/store"
	"golang.org/x/xerrors"
)

// Engine implements the lifecycle of the polls. Owner-only operations check
// the access first, then the state of the poll. Every operation returns the
// event it produced.
type Engine struct {
	access access.Service
	creds  access.Credential
}

// NewEngine returns an engine which authorizes the owner-only operations with
// the access service and the credential.
func NewEngine(srvc access.Service, creds access.Credential) Engine {
	return Engine{
		access: srvc,
		creds:  creds,
	}
}

// CreatePoll creates a new open poll. Only the owner can create a poll.
func (e Engine) CreatePoll(snap store.Snapshot, caller access.Identity,
	title string, candidates []string, now time.Time) (types.PollCreated, error) {

	err := e.authorize(snap, caller)
	if err != nil {
		return types.PollCreated{}, err
	}

	id, err := NewPollStore(snap).Create(title, candidates, now)
	if err != nil {
		return types.PollCreated{}, err
	}

	event := types.PollCreated{
		PollID:     id,
		Title:      title,
		Candidates: append([]string{}, candidates...),
	}

	return event, nil
}

// Vote casts the vote of the caller for the candidate. Anyone can vote once per
// poll while it is open.
func (e Engine) Vote(snap store.Snapshot, caller access.Identity,
	id uint64, candidate string) (types.VoteCasted, error) {

	voter, err := caller.MarshalText()
	if err != nil {
		return types.VoteCasted{}, xerrors.Errorf("failed to marshal caller: %v", err)
	}

	pollStore := NewPollStore(snap)

	poll, err := pollStore.Get(id)
	if err != nil {
		return types.VoteCasted{}, err
	}

	if !poll.Status.IsOpen() {
		return types.VoteCasted{}, xerrors.Errorf("poll %d: %w", id, ErrPollClosed)
	}

	voted, err := pollStore.HasVoted(id, string(voter))
	if err != nil {
		return types.VoteCasted{}, err
	}

	if voted {
		return types.VoteCasted{}, xerrors.Errorf("poll %d: %w", id, ErrAlreadyVoted)
	}

	if poll.IndexOf(candidate) < 0 {
		return types.VoteCasted{}, xerrors.Errorf("candidate '%s': %w", candidate, ErrInvalidCandidate)
	}

	err = pollStore.RecordVote(id, string(voter), candidate)
	if err != nil {
		return types.VoteCasted{}, err
	}

	event := types.VoteCasted{
		PollID:    id,
		Voter:     string(voter),
		Candidate: candidate,
	}

	return event, nil
}

// ClosePoll closes an open poll. Only the owner can close a poll and it cannot
// be reopened.
func (e Engine) ClosePoll(snap store.Snapshot, caller access.Identity, id uint64) (types.PollClosed, error) {
	err := e.authorize(snap, caller)
	if err != nil {
		return types.PollClosed{}, err
	}

	err = NewPollStore(snap).Close(id)
	if err != nil {
		return types.PollClosed{}, err
	}

	return types.PollClosed{PollID: id}, nil
}

// DeclareWinner computes and stores the winners of a closed poll. Only the
// owner can declare the winners, and only once.
func (e Engine) DeclareWinner(snap store.Snapshot, caller access.Identity, id uint64) (types.WinnerDeclared, error) {
	err := e.authorize(snap, caller)
	if err != nil {
		return types.WinnerDeclared{}, err
	}

	pollStore := NewPollStore(snap)

	poll, err := pollStore.Get(id)
	if err != nil {
		return types.WinnerDeclared{}, err
	}

	if poll.Status.IsOpen() {
		return types.WinnerDeclared{}, xerrors.Errorf("poll %d: %w", id, ErrPollMustBeClosed)
	}

	if poll.IsDeclared() {
		return types.WinnerDeclared{}, xerrors.Errorf("poll %d: %w", id, ErrAlreadyDeclared)
	}

	winners := findWinners(poll)

	err = pollStore.SetWinners(id, winners)
	if err != nil {
		return types.WinnerDeclared{}, err
	}

	event := types.WinnerDeclared{
		PollID:  id,
		Winners: winners,
	}

	return event, nil
}

func (e Engine) authorize(snap store.Readable, caller access.Identity) error {
	err := e.access.Match(snap, e.creds, caller)
	if err != nil {
		polls.Logger.Debug().Err(err).Msg("access refused")

		return ErrUnauthorized
	}

	return nil
}

// findWinners returns every candidate having the highest count, in the order
// of declaration. When nobody voted, every candidate wins.
func findWinners(poll types.Poll) []string {
	var winners []string
	max := uint64(0)

	for i, candidate := range poll.Candidates {
		count := poll.Tally[i]

		switch {
		case count > max:
			max = count
			winners = []string{candidate}
		case count == max:
			winners = append(winners, candidate)
		}
	}

	return winners
}
