// Package node defines the Builder type, which builds a CLI application that
// runs the components of a node in the same process as the command.
//
// Each module provides an initializer that sets its commands, and starts the
// components it owns when an action is invoked. The components are made
// available to the actions and to the other modules through an injector.
package node

import (
	"context"
	"io"

	"go.dedis.ch/polls/cli"
)

// Builder is the builder that will be provided to the initializers, which can
// create commands and actions.
type Builder interface {
	// SetCommand creates a new command and returns its builder.
	SetCommand(name string) cli.CommandBuilder

	// MakeAction creates a CLI action from a given template. The components are
	// started before the template is executed, and stopped after.
	MakeAction(ActionTemplate) cli.Action
}

// ActionTemplate is an extension of the cli.Action interface to allow an action
// to use the components of the node.
type ActionTemplate interface {
	// Execute processes a command received from the CLI.
	Execute(Context) error
}

// Context is the context available to the action when being invoked. It
// provides the dependency injector alongside with the input and output.
type Context struct {
	// Ctx is done when the process is interrupted.
	Ctx context.Context

	Injector Injector
	Flags    cli.Flags
	Out      io.Writer
}

// Injector is a dependency injection abstraction.
type Injector interface {
	// Resolve populates the input with the dependency if any compatible exists.
	Resolve(interface{}) error

	// Inject stores the dependency to be resolved later on.
	Inject(interface{})
}

// Initializer is the interface that a module can implement to set its own
// commands and inject the dependencies that will be resolved in the actions.
type Initializer interface {
	// SetCommands populates the builder with the commands of the controller.
	SetCommands(Builder)

	// OnStart starts the components of the initializer and populates the
	// injector.
	OnStart(cli.Flags, Injector) error

	// OnStop stops the components and cleans the resources.
	OnStop(Injector) error
}
