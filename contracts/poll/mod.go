// Package poll implements the native contract of the owner-administered polls.
//
// The owner creates polls with a fixed list of candidates, closes them and
// declares the winners. Anyone can vote once per open poll. The state of the
// contract lives in its own namespace of the ledger.
package poll

import (
	"encoding/json"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.dedis.ch/polls"
	"go.dedis.ch/polls/core/access"
	"go.dedis.ch/polls/core/execution"
	"go.dedis.ch/polls/core/execution/native"
	"go.dedis.ch/polls/core/store"
	"go.dedis.ch/polls/core/txn"
	"golang.org/x/xerrors"
)

const (
	// ContractName is the name of the contract.
	ContractName = "go.dedis.ch/polls.Poll"

	// ContractUID is the unique 4-bytes identifier of the contract.
	ContractUID = "POLL"

	// CmdArg is the argument's name to indicate the kind of command we want to
	// run on the contract. Should be one of the Command type.
	CmdArg = "poll:command"

	// TitleArg is the argument's name for the title of a new poll.
	TitleArg = "poll:title"

	// CandidatesArg is the argument's name for the candidates of a new poll,
	// encoded as a JSON array of strings.
	CandidatesArg = "poll:candidates"

	// PollIDArg is the argument's name for the decimal identifier of a poll.
	PollIDArg = "poll:id"

	// CandidateArg is the argument's name for the candidate of a vote.
	CandidateArg = "poll:candidate"
)

// Command defines a type of command for the poll contract.
type Command string

const (
	// CmdCreatePoll defines the command to create a poll.
	CmdCreatePoll Command = "CREATE_POLL"

	// CmdVote defines the command to vote in a poll.
	CmdVote Command = "VOTE"

	// CmdClosePoll defines the command to close a poll.
	CmdClosePoll Command = "CLOSE_POLL"

	// CmdDeclareWinner defines the command to declare the winners of a poll.
	CmdDeclareWinner Command = "DECLARE_WINNER"
)

var promCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "polls_contract_commands_total",
	Help: "number of poll commands executed",
}, []string{"command", "outcome"})

func init() {
	polls.PromCollectors = append(polls.PromCollectors, promCommands)
}

// commands defines the commands of the poll contract. This interface helps in
// testing the contract.
type commands interface {
	createPoll(snap store.Snapshot, step execution.Step) (execution.Event, error)
	vote(snap store.Snapshot, step execution.Step) (execution.Event, error)
	closePoll(snap store.Snapshot, step execution.Step) (execution.Event, error)
	declareWinner(snap store.Snapshot, step execution.Step) (execution.Event, error)
}

// NewCreds returns the credential of the owner of the polls.
func NewCreds() access.Credential {
	return access.NewContractCreds([]byte(ContractName), ContractName, "owner")
}

// RegisterContract registers the poll contract to the given execution service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Contract is the native contract of the polls.
//
// - implements native.Contract
type Contract struct {
	engine Engine
	cmd    commands
	logger zerolog.Logger
}

// NewContract creates a new poll contract. The access service decides who is
// the owner.
func NewContract(srvc access.Service) Contract {
	contract := Contract{
		engine: NewEngine(srvc, NewCreds()),
		logger: polls.Logger.With().Str("contract", "poll").Logger(),
	}

	contract.cmd = pollCommand{Contract: &contract}

	return contract
}

// UID implements native.Contract.
func (c Contract) UID() string {
	return ContractUID
}

// Execute implements native.Contract. It runs the appropriate command and
// returns the event it produced.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) ([]execution.Event, error) {
	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return nil, xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	}

	var event execution.Event
	var err error

	switch Command(cmd) {
	case CmdCreatePoll:
		event, err = c.cmd.createPoll(snap, step)
	case CmdVote:
		event, err = c.cmd.vote(snap, step)
	case CmdClosePoll:
		event, err = c.cmd.closePoll(snap, step)
	case CmdDeclareWinner:
		event, err = c.cmd.declareWinner(snap, step)
	default:
		return nil, xerrors.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		promCommands.WithLabelValues(string(cmd), "rejected").Inc()

		return nil, xerrors.Errorf("failed to %s: %w", cmd, err)
	}

	promCommands.WithLabelValues(string(cmd), "accepted").Inc()

	return []execution.Event{event}, nil
}

// pollCommand implements the commands of the poll contract.
//
// - implements commands
type pollCommand struct {
	*Contract
}

func (c pollCommand) createPoll(snap store.Snapshot, step execution.Step) (execution.Event, error) {
	// A missing title is an empty one.
	title := step.Current.GetArg(TitleArg)

	raw := step.Current.GetArg(CandidatesArg)
	if len(raw) == 0 {
		return nil, xerrors.Errorf("'%s' not found in tx arg", CandidatesArg)
	}

	var candidates []string

	err := json.Unmarshal(raw, &candidates)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal candidates: %v", err)
	}

	event, err := c.engine.CreatePoll(snap, step.Current.GetIdentity(), string(title),
		candidates, step.Timestamp)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Uint64("poll", event.PollID).
		Strs("candidates", event.Candidates).
		Msgf("poll '%s' created", event.Title)

	return event, nil
}

func (c pollCommand) vote(snap store.Snapshot, step execution.Step) (execution.Event, error) {
	id, err := getPollID(step)
	if err != nil {
		return nil, err
	}

	candidate := step.Current.GetArg(CandidateArg)

	event, err := c.engine.Vote(snap, step.Current.GetIdentity(), id, string(candidate))
	if err != nil {
		return nil, err
	}

	c.logger.Info().Uint64("poll", id).Str("voter", event.Voter).Msg("vote casted")

	return event, nil
}

func (c pollCommand) closePoll(snap store.Snapshot, step execution.Step) (execution.Event, error) {
	id, err := getPollID(step)
	if err != nil {
		return nil, err
	}

	event, err := c.engine.ClosePoll(snap, step.Current.GetIdentity(), id)
	if err != nil {
		return nil, err
	}

	c.logger.Info().Uint64("poll", id).Msg("poll closed")

	return event, nil
}

func (c pollCommand) declareWinner(snap store.Snapshot, step execution.Step) (execution.Event, error) {
	id, err := getPollID(step)
	if err != nil {
		return nil, err
	}

	event, err := c.engine.DeclareWinner(snap, step.Current.GetIdentity(), id)
	if err != nil {
		return nil, err
	}

	c.logger.Info().Uint64("poll", id).Strs("winners", event.Winners).Msg("winners declared")

	return event, nil
}

func getPollID(step execution.Step) (uint64, error) {
	raw := step.Current.GetArg(PollIDArg)
	if len(raw) == 0 {
		return 0, xerrors.Errorf("'%s' not found in tx arg", PollIDArg)
	}

	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("invalid poll id '%s': %v", raw, err)
	}

	return id, nil
}

// NewCreatePollArgs returns the arguments of a transaction creating a poll.
func NewCreatePollArgs(title string, candidates []string) ([]txn.Arg, error) {
	raw, err := json.Marshal(candidates)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal candidates: %v", err)
	}

	args := []txn.Arg{
		{Key: native.ContractArg, Value: []byte(ContractName)},
		{Key: CmdArg, Value: []byte(CmdCreatePoll)},
		{Key: TitleArg, Value: []byte(title)},
		{Key: CandidatesArg, Value: raw},
	}

	return args, nil
}

// NewVoteArgs returns the arguments of a transaction voting for a candidate.
func NewVoteArgs(id uint64, candidate string) []txn.Arg {
	return append(makePollArgs(CmdVote, id), txn.Arg{Key: CandidateArg, Value: []byte(candidate)})
}

// NewClosePollArgs returns the arguments of a transaction closing a poll.
func NewClosePollArgs(id uint64) []txn.Arg {
	return makePollArgs(CmdClosePoll, id)
}

// NewDeclareWinnerArgs returns the arguments of a transaction declaring the
// winners of a poll.
func NewDeclareWinnerArgs(id uint64) []txn.Arg {
	return makePollArgs(CmdDeclareWinner, id)
}

func makePollArgs(cmd Command, id uint64) []txn.Arg {
	return []txn.Arg{
		{Key: native.ContractArg, Value: []byte(ContractName)},
		{Key: CmdArg, Value: []byte(cmd)},
		{Key: PollIDArg, Value: []byte(strconv.FormatUint(id, 10))},
	}
}
