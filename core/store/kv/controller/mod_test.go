package controller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/polls/cli/node"
	"go.dedis.ch/polls/core/store/kv"
	"go.dedis.ch/polls/core/store/mem"
	"go.dedis.ch/polls/internal/testing/fake"
)

func TestController_OnStart(t *testing.T) {
	dir := t.TempDir()

	ctrl := NewController()
	ctrl.SetCommands(nil)

	inj := node.NewInjector()
	inj.Inject(node.DefaultConfig(dir))

	err := ctrl.OnStart(node.FlagSet{}, inj)
	require.NoError(t, err)

	var db kv.DB
	require.NoError(t, inj.Resolve(&db))

	_, err = os.Stat(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)

	err = ctrl.OnStop(inj)
	require.NoError(t, err)
}

func TestController_OnStartInMemory(t *testing.T) {
	dir := t.TempDir()

	cfg := node.DefaultConfig(dir)
	cfg.DBFile = MemoryDB

	inj := node.NewInjector()
	inj.Inject(cfg)

	ctrl := controller{
		open: func(string) (kv.DB, error) { return nil, fake.GetError() },
	}

	err := ctrl.OnStart(node.FlagSet{}, inj)
	require.NoError(t, err)

	var db kv.DB
	require.NoError(t, inj.Resolve(&db))
	require.IsType(t, &mem.DB{}, db)

	_, err = os.Stat(filepath.Join(dir, MemoryDB))
	require.True(t, os.IsNotExist(err))

	require.NoError(t, ctrl.OnStop(inj))
}

func TestController_OnStartFailures(t *testing.T) {
	err := NewController().OnStart(node.FlagSet{}, node.NewInjector())
	require.EqualError(t, err, "injector: couldn't find dependency for 'node.Config'")

	ctrl := controller{
		open: func(string) (kv.DB, error) { return nil, fake.GetError() },
	}

	inj := node.NewInjector()
	inj.Inject(node.DefaultConfig(t.TempDir()))

	err = ctrl.OnStart(node.FlagSet{}, inj)
	require.EqualError(t, err, fake.Err("db"))
}

func TestController_OnStopFailures(t *testing.T) {
	err := NewController().OnStop(node.NewInjector())
	require.EqualError(t, err, "injector: couldn't find dependency for 'kv.DB'")

	inj := node.NewInjector()
	inj.Inject(badDB{})

	err = NewController().OnStop(inj)
	require.EqualError(t, err, fake.Err("while closing db"))
}

type badDB struct {
	kv.DB
}

func (badDB) Close() error {
	return fake.GetError()
}
