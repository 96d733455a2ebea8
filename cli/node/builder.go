package node

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.dedis.ch/polls"
	"go.dedis.ch/polls/cli"
	"go.dedis.ch/polls/cli/urfave"
	"golang.org/x/xerrors"
)

// CLIBuilder is an application builder that will build a CLI to run the
// actions of a node.
//
// - implements node.Builder
// - implements cli.Builder
type CLIBuilder struct {
	cli.Builder

	inits  []Initializer
	writer io.Writer

	// In production, the actions are interrupted via SIGINT or SIGTERM. In
	// case of testing, the signal is sent to the channel instead.
	enableSignal bool
	sigs         chan os.Signal
}

// NewBuilder returns a new empty builder.
func NewBuilder(name string, inits ...Initializer) *CLIBuilder {
	return NewBuilderWithCfg(name, nil, nil, inits...)
}

// NewBuilderWithCfg returns a new empty builder with specific configurations.
func NewBuilderWithCfg(name string, sigs chan os.Signal, out io.Writer, inits ...Initializer) *CLIBuilder {
	if out == nil {
		out = os.Stdout
	}

	enabled := false

	if sigs == nil {
		sigs = make(chan os.Signal, 1)
		enabled = true
	}

	builder := urfave.NewBuilder(name, nil,
		cli.StringFlag{
			Name:  "config",
			Usage: "path to the config folder",
			Value: DefaultConfigDir(),
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "level of the logs (trace, debug, info, warn, error)",
		},
	)

	return &CLIBuilder{
		Builder:      builder,
		inits:        inits,
		writer:       out,
		enableSignal: enabled,
		sigs:         sigs,
	}
}

// MakeAction implements node.Builder. It creates a CLI action from the
// template.
func (b *CLIBuilder) MakeAction(tmpl ActionTemplate) cli.Action {
	return func(flags cli.Flags) error {
		return b.run(tmpl, flags)
	}
}

// Build implements cli.Builder. It returns the application.
func (b *CLIBuilder) Build() cli.Application {
	for _, controller := range b.inits {
		controller.SetCommands(b)
	}

	return b.Builder.Build()
}

func (b *CLIBuilder) run(tmpl ActionTemplate, flags cli.Flags) (err error) {
	dir := flags.Path("config")
	if dir != "" {
		err := os.MkdirAll(dir, 0700)
		if err != nil {
			return xerrors.Errorf("couldn't make path: %v", err)
		}
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		return xerrors.Errorf("couldn't load config: %v", err)
	}

	level := flags.String("log-level")
	if level == "" {
		level = cfg.LogLevel
	}

	err = polls.SetLogLevel(level)
	if err != nil {
		return xerrors.Errorf("invalid log level '%s': %v", level, err)
	}

	injector := NewInjector()
	injector.Inject(cfg)

	started := 0

	// Controllers are stopped in reverse order so that high level components
	// are stopped before lower level ones (i.e. stop a service before the
	// database to avoid errors).
	defer func() {
		for i := started - 1; i >= 0; i-- {
			stopErr := b.inits[i].OnStop(injector)
			if stopErr != nil && err == nil {
				err = xerrors.Errorf("couldn't stop controller: %v", stopErr)
			}
		}
	}()

	for _, controller := range b.inits {
		err = controller.OnStart(flags, injector)
		if err != nil {
			return xerrors.Errorf("couldn't run the controller: %v", err)
		}

		started++
	}

	ctx, cancel := b.makeContext()
	defer cancel()

	err = tmpl.Execute(Context{
		Ctx:      ctx,
		Injector: injector,
		Flags:    flags,
		Out:      b.writer,
	})
	if err != nil {
		return xerrors.Opaque(err)
	}

	polls.Logger.Trace().Msg("action done")

	return nil
}

func (b *CLIBuilder) makeContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	if b.enableSignal {
		signal.Notify(b.sigs, syscall.SIGINT, syscall.SIGTERM)
	}

	go func() {
		select {
		case <-b.sigs:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		if b.enableSignal {
			signal.Stop(b.sigs)
		}

		cancel()
	}
}
