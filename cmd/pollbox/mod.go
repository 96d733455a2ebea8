// Package main implements the pollbox application, a ledger of
// owner-administered polls running on the local node.
//
//	pollbox ledger init
//	pollbox poll create --title "Best fruit" --candidate apple --candidate pear
//	pollbox poll vote --id 0 --candidate pear
//	pollbox poll close --id 0
//	pollbox poll declare --id 0
//	pollbox poll show --id 0
//	pollbox --config ~/.pollbox-2 key show
package main

import (
	"fmt"
	"io"
	"os"

	"go.dedis.ch/polls/cli/node"
	poll "go.dedis.ch/polls/contracts/poll/controller"
	ledger "go.dedis.ch/polls/core/ordering/serial/controller"
	db "go.dedis.ch/polls/core/store/kv/controller"
	signed "go.dedis.ch/polls/core/txn/signed/controller"
)

type config struct {
	Channel chan os.Signal
	Writer  io.Writer
}

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return runWithCfg(args, config{Writer: os.Stdout})
}

func runWithCfg(args []string, cfg config) error {
	// The order matters: the ledger needs the database, the manager gets its
	// nonce from the ledger, and the poll contract is registered last.
	builder := node.NewBuilderWithCfg("pollbox", cfg.Channel, cfg.Writer,
		db.NewController(),
		ledger.NewController(),
		signed.NewManagerController(),
		poll.NewController(),
		newMetricsController(),
	)

	app := builder.Build()

	return app.Run(args)
}
