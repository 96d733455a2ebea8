package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.dedis.ch/polls"
	"go.dedis.ch/polls/cli"
	"go.dedis.ch/polls/cli/node"
	"golang.org/x/xerrors"
)

const shutdownTimeout = 5 * time.Second

// metricsController sets the command serving the prometheus metrics.
//
// - implements node.Initializer
type metricsController struct{}

func newMetricsController() node.Initializer {
	return metricsController{}
}

// SetCommands implements node.Initializer.
func (metricsController) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("metrics")
	cmd.SetDescription("serve the prometheus metrics until interrupted")
	cmd.SetFlags(cli.StringFlag{
		Name:  "addr",
		Usage: "listening address, defaults to the configuration",
	})
	cmd.SetAction(builder.MakeAction(metricsAction{}))
}

// OnStart implements node.Initializer.
func (metricsController) OnStart(cli.Flags, node.Injector) error {
	return nil
}

// OnStop implements node.Initializer.
func (metricsController) OnStop(node.Injector) error {
	return nil
}

// metricsAction serves the collectors of the components.
//
// - implements node.ActionTemplate
type metricsAction struct{}

// Execute implements node.ActionTemplate.
func (metricsAction) Execute(ctx node.Context) error {
	var cfg node.Config
	err := ctx.Injector.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	addr := ctx.Flags.String("addr")
	if addr == "" {
		addr = cfg.PrometheusAddr
	}

	registry := prometheus.NewRegistry()

	for _, c := range polls.PromCollectors {
		err = registry.Register(c)
		if err != nil {
			return xerrors.Errorf("failed to register collector: %v", err)
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return xerrors.Errorf("failed to listen: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Handler: mux}

	done := make(chan error, 1)

	go func() {
		done <- srv.Serve(ln)
	}()

	fmt.Fprintf(ctx.Out, "serving metrics on http://%s/metrics\n", ln.Addr())

	select {
	case <-ctx.Ctx.Done():
	case err := <-done:
		return xerrors.Errorf("server stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		return xerrors.Errorf("failed to shutdown: %v", err)
	}

	return nil
}
