// Package polls is the root package of an owner-administered poll ledger.
//
// Polls are handled by a native contract executed by a serializing ledger.
// The package holds what is shared by every component: the logger and the
// list of prometheus collectors.
package polls

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(zerolog.InfoLevel)

// PromCollectors exposes the prometheus collectors of the components. They are
// registered only by the process that serves them.
var PromCollectors []prometheus.Collector

// SetLogLevel parses the level and applies it to the global logger. An empty
// level is ignored.
func SetLogLevel(level string) error {
	if level == "" {
		return nil
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}

	Logger = Logger.Level(lvl)

	return nil
}
