// Package controller implements the initializer that opens the database of the
// node.
package controller

import (
	"go.dedis.ch/polls/cli"
	"go.dedis.ch/polls/cli/node"
	"go.dedis.ch/polls/core/store/kv"
	"go.dedis.ch/polls/core/store/mem"
	"golang.org/x/xerrors"
)

// MemoryDB is the database file that selects an in-memory database. The state
// is lost when the command returns.
const MemoryDB = ":memory:"

// controller opens the bbolt database in the config folder, or an in-memory
// one when configured with MemoryDB.
//
// - implements node.Initializer
type controller struct {
	open func(path string) (kv.DB, error)
}

// NewController returns a new controller for the database.
func NewController() node.Initializer {
	return controller{open: kv.New}
}

// SetCommands implements node.Initializer.
func (controller) SetCommands(node.Builder) {}

// OnStart implements node.Initializer. It opens the database and injects it.
func (c controller) OnStart(flags cli.Flags, inj node.Injector) error {
	var cfg node.Config
	err := inj.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	if cfg.DBFile == MemoryDB {
		inj.Inject(mem.NewDB())
		return nil
	}

	db, err := c.open(cfg.Path(cfg.DBFile))
	if err != nil {
		return xerrors.Errorf("db: %v", err)
	}

	inj.Inject(db)

	return nil
}

// OnStop implements node.Initializer. It closes the database.
func (controller) OnStop(inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	err = db.Close()
	if err != nil {
		return xerrors.Errorf("while closing db: %v", err)
	}

	return nil
}
