// Package controller implements the initializer of the ledger. It creates the
// ordering service over the database of the node and sets the ledger
// commands.
package controller

import (
	"fmt"
	"time"

	"go.dedis.ch/polls/cli"
	"go.dedis.ch/polls/cli/node"
	"go.dedis.ch/polls/core/access"
	"go.dedis.ch/polls/core/access/owner"
	"go.dedis.ch/polls/core/execution/native"
	"go.dedis.ch/polls/core/ordering"
	"go.dedis.ch/polls/core/ordering/serial"
	"go.dedis.ch/polls/core/store"
	"go.dedis.ch/polls/core/store/kv"
	"go.dedis.ch/polls/crypto"
	"go.dedis.ch/polls/crypto/ed25519"
	"golang.org/x/xerrors"
)

// controller is the initializer of the ledger.
//
// - implements node.Initializer
type controller struct{}

// NewController returns a new controller for the ledger.
func NewController() node.Initializer {
	return controller{}
}

// SetCommands implements node.Initializer. It sets the ledger commands.
func (controller) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("ledger")
	cmd.SetDescription("manage the ledger")

	sub := cmd.SetSubCommand("init")
	sub.SetDescription("initialize the ledger and its owner")
	sub.SetFlags(cli.StringFlag{
		Name:  "owner",
		Usage: "identity of the owner, defaults to the local identity",
	})
	sub.SetAction(builder.MakeAction(initAction{}))

	sub = cmd.SetSubCommand("owner")
	sub.SetDescription("print the owner of the ledger")
	sub.SetAction(builder.MakeAction(ownerAction{}))

	sub = cmd.SetSubCommand("events")
	sub.SetDescription("print the event log")
	sub.SetFlags(cli.IntFlag{
		Name:  "from",
		Usage: "index of the first event",
	})
	sub.SetAction(builder.MakeAction(eventsAction{}))
}

// OnStart implements node.Initializer. It creates the ordering service and
// injects it alongside the execution and access services.
func (controller) OnStart(flags cli.Flags, inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	exec := native.NewExecution()

	srvc := serial.NewService(db, exec)

	inj.Inject(exec)
	inj.Inject(owner.NewService())
	inj.Inject(srvc)

	return nil
}

// OnStop implements node.Initializer. The database is closed by its own
// controller.
func (controller) OnStop(node.Injector) error {
	return nil
}

// initAction runs the genesis of the ledger.
//
// - implements node.ActionTemplate
type initAction struct{}

// Execute implements node.ActionTemplate. It grants the owner of the polls.
func (initAction) Execute(ctx node.Context) error {
	var srvc *serial.Service
	err := ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var accessSrvc access.Service
	err = ctx.Injector.Resolve(&accessSrvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var creds access.Credential
	err = ctx.Injector.Resolve(&creds)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	ident, err := getOwner(ctx)
	if err != nil {
		return err
	}

	text, err := ident.MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal identity: %v", err)
	}

	err = srvc.Genesis(func(snap store.Snapshot) error {
		return accessSrvc.Grant(snap, creds, ident)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "ledger initialized with owner %s\n", text)

	return nil
}

func getOwner(ctx node.Context) (access.Identity, error) {
	text := ctx.Flags.String("owner")
	if text != "" {
		pk, err := ed25519.ParsePublicKey(text)
		if err != nil {
			return nil, xerrors.Errorf("invalid owner: %v", err)
		}

		return pk, nil
	}

	var signer crypto.Signer
	err := ctx.Injector.Resolve(&signer)
	if err != nil {
		return nil, xerrors.Errorf("injector: %v", err)
	}

	return signer.GetPublicKey(), nil
}

// ownerAction prints the owner of the ledger, and if the local identity is the
// owner.
//
// - implements node.ActionTemplate
type ownerAction struct{}

// Execute implements node.ActionTemplate.
func (ownerAction) Execute(ctx node.Context) error {
	var srvc ordering.Service
	err := ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var ownerSrvc owner.Service
	err = ctx.Injector.Resolve(&ownerSrvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var creds access.Credential
	err = ctx.Injector.Resolve(&creds)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var text string

	err = srvc.View(func(r store.Readable) error {
		var err error
		text, err = ownerSrvc.GetOwner(r, creds)
		return err
	})
	if err != nil {
		return xerrors.Errorf("failed to read owner: %v", err)
	}

	fmt.Fprintln(ctx.Out, text)

	var signer crypto.Signer
	err = ctx.Injector.Resolve(&signer)
	if err != nil {
		return nil
	}

	local, err := signer.GetPublicKey().MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal identity: %v", err)
	}

	if string(local) == text {
		fmt.Fprintln(ctx.Out, "the local identity is the owner")
	}

	return nil
}

// eventsAction prints the event log.
//
// - implements node.ActionTemplate
type eventsAction struct{}

// Execute implements node.ActionTemplate.
func (eventsAction) Execute(ctx node.Context) error {
	var srvc ordering.Service
	err := ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	from := ctx.Flags.Int("from")
	if from < 0 {
		return xerrors.Errorf("invalid index %d", from)
	}

	err = srvc.Events(uint64(from), func(record ordering.Record) error {
		fmt.Fprintf(ctx.Out, "#%d %s %s %s\n", record.Index,
			record.Timestamp.Format(time.RFC3339Nano), record.Name, record.Data)

		return nil
	})
	if err != nil {
		return xerrors.Errorf("failed to read events: %v", err)
	}

	return nil
}
