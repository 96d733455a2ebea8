// Package controller implements the initializer of the local identity. It
// loads the private key of the node and injects a transaction manager signing
// with it.
package controller

import (
	"fmt"

	"go.dedis.ch/polls/cli"
	"go.dedis.ch/polls/cli/node"
	"go.dedis.ch/polls/core/txn/signed"
	"go.dedis.ch/polls/crypto"
	"go.dedis.ch/polls/crypto/ed25519"
	"go.dedis.ch/polls/crypto/loader"
	"golang.org/x/xerrors"
)

// mgrController creates the signer and the transaction manager.
//
// - implements node.Initializer
type mgrController struct {
	newLoader func(path string) loader.Loader
}

// NewManagerController creates a new controller that will inject a signer and
// a transaction manager in the context. The key is created on first use.
func NewManagerController() node.Initializer {
	return mgrController{newLoader: loader.NewFileLoader}
}

// SetCommands implements node.Initializer. It sets the key commands.
func (mgrController) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("key")
	cmd.SetDescription("manage the local identity")

	sub := cmd.SetSubCommand("show")
	sub.SetDescription("print the local identity")
	sub.SetAction(builder.MakeAction(showAction{}))
}

// OnStart implements node.Initializer. It loads or creates the private key,
// then injects the signer and the manager synchronized with the ledger.
func (c mgrController) OnStart(flags cli.Flags, inj node.Injector) error {
	var cfg node.Config
	err := inj.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var client signed.Client
	err = inj.Resolve(&client)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	data, err := c.newLoader(cfg.Path(cfg.KeyFile)).LoadOrCreate(ed25519.Generator{})
	if err != nil {
		return xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return xerrors.Errorf("failed to unmarshal signer: %v", err)
	}

	mgr := signed.NewManager(signer, client)

	err = mgr.Sync()
	if err != nil {
		return xerrors.Errorf("failed to sync manager: %v", err)
	}

	inj.Inject(signer)
	inj.Inject(mgr)

	return nil
}

// OnStop implements node.Initializer.
func (mgrController) OnStop(node.Injector) error {
	return nil
}

// showAction prints the identity of the local signer.
//
// - implements node.ActionTemplate
type showAction struct{}

// Execute implements node.ActionTemplate.
func (showAction) Execute(ctx node.Context) error {
	var signer crypto.Signer
	err := ctx.Injector.Resolve(&signer)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	text, err := signer.GetPublicKey().MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal identity: %v", err)
	}

	fmt.Fprintln(ctx.Out, string(text))

	return nil
}
