package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/polls/contracts/poll/types"
	"go.dedis.ch/polls/core/access"
	"go.dedis.ch/polls/core/access/owner"
	"go.dedis.ch/polls/core/execution"
	"go.dedis.ch/polls/core/execution/native"
	"go.dedis.ch/polls/core/store"
	"go.dedis.ch/polls/core/txn"
	"go.dedis.ch/polls/internal/testing/fake"
	"golang.org/x/xerrors"
)

func TestRegisterContract(t *testing.T) {
	exec := native.NewExecution()

	RegisterContract(exec, NewContract(owner.NewService()))

	require.Panics(t, func() {
		RegisterContract(exec, NewContract(owner.NewService()))
	})
}

func TestContract_UID(t *testing.T) {
	require.Equal(t, ContractUID, NewContract(owner.NewService()).UID())
}

func TestContract_Lifecycle(t *testing.T) {
	contract, snap := makeContract(t)

	now := time.Unix(1600000000, 0).UTC()

	args, err := NewCreatePollArgs("Best", []string{"A", "B"})
	require.NoError(t, err)

	events, err := contract.Execute(snap, makeStep(theOwner, now, args...))
	require.NoError(t, err)
	require.Equal(t, []execution.Event{types.PollCreated{
		PollID:     0,
		Title:      "Best",
		Candidates: []string{"A", "B"},
	}}, events)

	events, err = contract.Execute(snap, makeStep(alice, now, NewVoteArgs(0, "B")...))
	require.NoError(t, err)
	require.Equal(t, []execution.Event{types.VoteCasted{PollID: 0, Voter: "alice", Candidate: "B"}}, events)

	_, err = contract.Execute(snap, makeStep(alice, now, NewVoteArgs(0, "A")...))
	require.EqualError(t, err, "failed to VOTE: poll 0: you have already voted in this poll")

	_, err = contract.Execute(snap, makeStep(alice, now, NewClosePollArgs(0)...))
	require.EqualError(t, err, "failed to CLOSE_POLL: only owner can call this function")

	events, err = contract.Execute(snap, makeStep(theOwner, now, NewClosePollArgs(0)...))
	require.NoError(t, err)
	require.Equal(t, []execution.Event{types.PollClosed{PollID: 0}}, events)

	events, err = contract.Execute(snap, makeStep(theOwner, now, NewDeclareWinnerArgs(0)...))
	require.NoError(t, err)
	require.Equal(t, []execution.Event{types.WinnerDeclared{PollID: 0, Winners: []string{"B"}}}, events)

	created, err := NewReader(snap).GetPollCreationTime(0)
	require.NoError(t, err)
	require.Equal(t, now, created)
}

func TestContract_BadArgs(t *testing.T) {
	contract, snap := makeContract(t)

	_, err := contract.Execute(snap, makeStep(theOwner, time.Now()))
	require.EqualError(t, err, "'poll:command' not found in tx arg")

	_, err = contract.Execute(snap, makeStep(theOwner, time.Now(), txn.Arg{Key: CmdArg, Value: []byte("fake")}))
	require.EqualError(t, err, "unknown command: fake")

	_, err = contract.Execute(snap, makeStep(theOwner, time.Now(),
		txn.Arg{Key: CmdArg, Value: []byte(CmdCreatePoll)},
		txn.Arg{Key: TitleArg, Value: []byte("title")}))
	require.EqualError(t, err, "failed to CREATE_POLL: 'poll:candidates' not found in tx arg")

	_, err = contract.Execute(snap, makeStep(theOwner, time.Now(),
		txn.Arg{Key: CmdArg, Value: []byte(CmdCreatePoll)},
		txn.Arg{Key: TitleArg, Value: []byte("title")},
		txn.Arg{Key: CandidatesArg, Value: []byte("{")}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to CREATE_POLL: failed to unmarshal candidates: ")

	_, err = contract.Execute(snap, makeStep(theOwner, time.Now(),
		txn.Arg{Key: CmdArg, Value: []byte(CmdVote)}))
	require.EqualError(t, err, "failed to VOTE: 'poll:id' not found in tx arg")

	_, err = contract.Execute(snap, makeStep(theOwner, time.Now(),
		txn.Arg{Key: CmdArg, Value: []byte(CmdVote)},
		txn.Arg{Key: PollIDArg, Value: []byte("abc")}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to VOTE: invalid poll id 'abc': ")


	_, err = contract.Execute(snap, makeStep(theOwner, time.Now(),
		txn.Arg{Key: CmdArg, Value: []byte(CmdClosePoll)}))
	require.EqualError(t, err, "failed to CLOSE_POLL: 'poll:id' not found in tx arg")

	_, err = contract.Execute(snap, makeStep(theOwner, time.Now(),
		txn.Arg{Key: CmdArg, Value: []byte(CmdDeclareWinner)}))
	require.EqualError(t, err, "failed to DECLARE_WINNER: 'poll:id' not found in tx arg")
}

func TestContract_EmptyArgs(t *testing.T) {
	contract, snap := makeContract(t)

	args, err := NewCreatePollArgs("", []string{"A", "B"})
	require.NoError(t, err)

	events, err := contract.Execute(snap, makeStep(theOwner, time.Now(), args...))
	require.NoError(t, err)
	require.Equal(t, "", events[0].(types.PollCreated).Title)

	_, err = contract.Execute(snap, makeStep(alice, time.Now(), NewVoteArgs(0, "")...))
	require.True(t, xerrors.Is(err, ErrInvalidCandidate))
	require.EqualError(t, err, "failed to VOTE: candidate '': invalid candidate")

	// The argument is missing altogether.
	_, err = contract.Execute(snap, makeStep(alice, time.Now(),
		txn.Arg{Key: CmdArg, Value: []byte(CmdVote)},
		txn.Arg{Key: PollIDArg, Value: []byte("0")}))
	require.True(t, xerrors.Is(err, ErrInvalidCandidate))

	poll, err := NewReader(snap).GetPoll(0)
	require.NoError(t, err)
	require.Equal(t, "", poll.Title)
	require.Equal(t, uint64(0), poll.TotalVotes())
}

func TestContract_Commands(t *testing.T) {
	contract := NewContract(owner.NewService())
	contract.cmd = badCommand{}

	for _, cmd := range []Command{CmdCreatePoll, CmdVote, CmdClosePoll, CmdDeclareWinner} {
		step := makeStep(theOwner, time.Now(), txn.Arg{Key: CmdArg, Value: []byte(cmd)})

		_, err := contract.Execute(fake.NewSnapshot(), step)
		require.EqualError(t, err, fake.Err("failed to "+string(cmd)))
	}
}

func TestContract_Log(t *testing.T) {
	contract, snap := makeContract(t)

	logger, check := fake.CheckLog("poll closed")
	contract.logger = logger
	contract.cmd = pollCommand{Contract: &contract}

	args, err := NewCreatePollArgs("Best", []string{"A"})
	require.NoError(t, err)

	_, err = contract.Execute(snap, makeStep(theOwner, time.Now(), args...))
	require.NoError(t, err)

	_, err = contract.Execute(snap, makeStep(theOwner, time.Now(), NewClosePollArgs(0)...))
	require.NoError(t, err)

	check(t)
}

func TestNewArgs(t *testing.T) {
	args, err := NewCreatePollArgs("Best", []string{"A", "B"})
	require.NoError(t, err)
	require.Equal(t, []txn.Arg{
		{Key: native.ContractArg, Value: []byte(ContractName)},
		{Key: CmdArg, Value: []byte("CREATE_POLL")},
		{Key: TitleArg, Value: []byte("Best")},
		{Key: CandidatesArg, Value: []byte(`["A","B"]`)},
	}, args)

	require.Equal(t, []txn.Arg{
		{Key: native.ContractArg, Value: []byte(ContractName)},
		{Key: CmdArg, Value: []byte("VOTE")},
		{Key: PollIDArg, Value: []byte("12")},
		{Key: CandidateArg, Value: []byte("A")},
	}, NewVoteArgs(12, "A"))

	require.Equal(t, []byte("CLOSE_POLL"), NewClosePollArgs(1)[1].Value)
	require.Equal(t, []byte("DECLARE_WINNER"), NewDeclareWinnerArgs(1)[1].Value)
}

// -----------------------------------------------------------------------------
// Utility functions

func makeContract(t *testing.T) (Contract, store.Snapshot) {
	snap := fake.NewSnapshot()

	srvc := owner.NewService()

	err := srvc.Grant(snap, NewCreds(), theOwner)
	require.NoError(t, err)

	return NewContract(srvc), snap
}

func makeStep(ident access.Identity, now time.Time, args ...txn.Arg) execution.Step {
	return execution.Step{
		Current:   fake.NewTransaction(ident, args...),
		Timestamp: now,
	}
}

type badCommand struct{}

func (badCommand) createPoll(store.Snapshot, execution.Step) (execution.Event, error) {
	return nil, fake.GetError()
}

func (badCommand) vote(store.Snapshot, execution.Step) (execution.Event, error) {
	return nil, fake.GetError()
}

func (badCommand) closePoll(store.Snapshot, execution.Step) (execution.Event, error) {
	return nil, fake.GetError()
}

func (badCommand) declareWinner(store.Snapshot, execution.Step) (execution.Event, error) {
	return nil, fake.GetError()
}
