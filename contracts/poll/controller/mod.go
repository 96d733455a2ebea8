// Package controller implements the initializer of the poll contract and the
// poll commands.
package controller

import (
	"fmt"
	"strings"
	"time"

	"go.dedis.ch/polls"
	"go.dedis.ch/polls/cli"
	"go.dedis.ch/polls/cli/node"
	"go.dedis.ch/polls/contracts/poll"
	"go.dedis.ch/polls/core/access"
	"go.dedis.ch/polls/core/execution/native"
	"go.dedis.ch/polls/core/ordering"
	"go.dedis.ch/polls/core/store"
	"go.dedis.ch/polls/core/txn"
	"golang.org/x/xerrors"
)

// controller registers the poll contract to the execution service.
//
// - implements node.Initializer
type controller struct{}

// NewController creates a new controller for the poll contract.
func NewController() node.Initializer {
	return controller{}
}

// SetCommands implements node.Initializer. It sets the poll commands.
func (controller) SetCommands(builder node.Builder) {
	idFlag := cli.IntFlag{
		Name:     "id",
		Usage:    "identifier of the poll",
		Required: true,
	}

	cmd := builder.SetCommand("poll")
	cmd.SetDescription("create, vote and read the polls")

	sub := cmd.SetSubCommand("create")
	sub.SetDescription("create a poll, owner only")
	sub.SetFlags(
		cli.StringFlag{
			Name:     "title",
			Usage:    "title of the poll",
			Required: true,
		},
		cli.StringSliceFlag{
			Name:     "candidate",
			Usage:    "candidate of the poll, can be repeated",
			Required: true,
		},
	)
	sub.SetAction(builder.MakeAction(createAction{}))

	sub = cmd.SetSubCommand("vote")
	sub.SetDescription("vote for a candidate of an open poll")
	sub.SetFlags(idFlag, cli.StringFlag{
		Name:     "candidate",
		Usage:    "candidate to vote for",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(voteAction{}))

	sub = cmd.SetSubCommand("close")
	sub.SetDescription("close a poll, owner only")
	sub.SetFlags(idFlag)
	sub.SetAction(builder.MakeAction(closeAction{}))

	sub = cmd.SetSubCommand("declare")
	sub.SetDescription("declare the winners of a closed poll, owner only")
	sub.SetFlags(idFlag)
	sub.SetAction(builder.MakeAction(declareAction{}))

	sub = cmd.SetSubCommand("show")
	sub.SetDescription("print a poll")
	sub.SetFlags(idFlag)
	sub.SetAction(builder.MakeAction(showAction{}))

	sub = cmd.SetSubCommand("results")
	sub.SetDescription("print the results of a closed poll")
	sub.SetFlags(idFlag)
	sub.SetAction(builder.MakeAction(resultsAction{}))

	sub = cmd.SetSubCommand("list")
	sub.SetDescription("print the identifiers and the titles of the polls")
	sub.SetAction(builder.MakeAction(listAction{}))
}

// OnStart implements node.Initializer. It registers the poll contract and
// injects the credential of the owner.
func (controller) OnStart(flags cli.Flags, inj node.Injector) error {
	var accessSrvc access.Service
	err := inj.Resolve(&accessSrvc)
	if err != nil {
		return xerrors.Errorf("failed to resolve access service: %v", err)
	}

	var exec *native.Service
	err = inj.Resolve(&exec)
	if err != nil {
		return xerrors.Errorf("failed to resolve native service: %v", err)
	}

	poll.RegisterContract(exec, poll.NewContract(accessSrvc))

	inj.Inject(poll.NewCreds())

	return nil
}

// OnStop implements node.Initializer.
func (controller) OnStop(node.Injector) error {
	return nil
}

// createAction submits a transaction creating a poll.
//
// - implements node.ActionTemplate
type createAction struct{}

// Execute implements node.ActionTemplate.
func (createAction) Execute(ctx node.Context) error {
	args, err := poll.NewCreatePollArgs(ctx.Flags.String("title"), ctx.Flags.StringSlice("candidate"))
	if err != nil {
		return err
	}

	return submit(ctx, args)
}

// voteAction submits a transaction voting for a candidate.
//
// - implements node.ActionTemplate
type voteAction struct{}

// Execute implements node.ActionTemplate.
func (voteAction) Execute(ctx node.Context) error {
	id, err := getID(ctx.Flags)
	if err != nil {
		return err
	}

	return submit(ctx, poll.NewVoteArgs(id, ctx.Flags.String("candidate")))
}

// closeAction submits a transaction closing a poll.
//
// - implements node.ActionTemplate
type closeAction struct{}

// Execute implements node.ActionTemplate.
func (closeAction) Execute(ctx node.Context) error {
	id, err := getID(ctx.Flags)
	if err != nil {
		return err
	}

	return submit(ctx, poll.NewClosePollArgs(id))
}

// declareAction submits a transaction declaring the winners of a poll.
//
// - implements node.ActionTemplate
type declareAction struct{}

// Execute implements node.ActionTemplate.
func (declareAction) Execute(ctx node.Context) error {
	id, err := getID(ctx.Flags)
	if err != nil {
		return err
	}

	return submit(ctx, poll.NewDeclareWinnerArgs(id))
}

// showAction prints a poll.
//
// - implements node.ActionTemplate
type showAction struct{}

// Execute implements node.ActionTemplate.
func (showAction) Execute(ctx node.Context) error {
	id, err := getID(ctx.Flags)
	if err != nil {
		return err
	}

	return view(ctx, func(reader poll.Reader) error {
		p, err := reader.GetPoll(id)
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.Out, "poll %d: %s\n", p.ID, p.Title)
		fmt.Fprintf(ctx.Out, "status: %s\n", p.Status)
		fmt.Fprintf(ctx.Out, "created: %s\n", p.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(ctx.Out, "candidates: %s\n", strings.Join(p.Candidates, ", "))
		fmt.Fprintf(ctx.Out, "total votes: %d\n", p.TotalVotes())

		if p.IsDeclared() {
			fmt.Fprintf(ctx.Out, "winners: %s\n", strings.Join(p.Winners, ", "))
		}

		return nil
	})
}

// resultsAction prints the results of a closed poll.
//
// - implements node.ActionTemplate
type resultsAction struct{}

// Execute implements node.ActionTemplate.
func (resultsAction) Execute(ctx node.Context) error {
	id, err := getID(ctx.Flags)
	if err != nil {
		return err
	}

	return view(ctx, func(reader poll.Reader) error {
		res, err := reader.GetPollResults(id)
		if err != nil {
			return err
		}

		for i, candidate := range res.Candidates {
			fmt.Fprintf(ctx.Out, "%s: %d\n", candidate, res.Counts[i])
		}

		return nil
	})
}

// listAction prints the polls.
//
// - implements node.ActionTemplate
type listAction struct{}

// Execute implements node.ActionTemplate.
func (listAction) Execute(ctx node.Context) error {
	return view(ctx, func(reader poll.Reader) error {
		summaries, err := reader.GetAllPollIdsWithTitles()
		if err != nil {
			return err
		}

		for _, s := range summaries {
			fmt.Fprintf(ctx.Out, "%d: %s\n", s.ID, s.Title)
		}

		return nil
	})
}

func submit(ctx node.Context, args []txn.Arg) error {
	var mgr txn.Manager
	err := ctx.Injector.Resolve(&mgr)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var srvc ordering.Service
	err = ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	tx, err := mgr.Make(args...)
	if err != nil {
		return xerrors.Errorf("failed to make tx: %v", err)
	}

	receipt, err := srvc.Submit(ctx.Ctx, tx)
	if err != nil || !receipt.Accepted {
		// The nonce of the ledger did not move.
		syncErr := mgr.Sync()
		if syncErr != nil {
			polls.Logger.Warn().Err(syncErr).Msg("failed to sync manager")
		}
	}

	if err != nil {
		return xerrors.Errorf("failed to submit tx: %v", err)
	}

	if !receipt.Accepted {
		return xerrors.Errorf("transaction rejected: %s", receipt.Message)
	}

	for _, record := range receipt.Events {
		fmt.Fprintf(ctx.Out, "%s %s\n", record.Name, record.Data)
	}

	return nil
}

func view(ctx node.Context, fn func(poll.Reader) error) error {
	var srvc ordering.Service
	err := ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	return srvc.View(func(r store.Readable) error {
		return fn(poll.NewReader(r))
	})
}

func getID(flags cli.Flags) (uint64, error) {
	id := flags.Int("id")
	if id < 0 {
		return 0, xerrors.Errorf("invalid poll id %d", id)
	}

	return uint64(id), nil
}
