package serial

import (
	"context"

	"go.dedis.ch/polls/core/ordering"
)

// observer forwards the records to a channel until its context is done.
//
// - implements core.Observer
type observer struct {
	ctx context.Context
	ch  chan ordering.Record
}

// NotifyCallback implements core.Observer.
func (obs observer) NotifyCallback(event interface{}) {
	record, ok := event.(ordering.Record)
	if !ok {
		return
	}

	select {
	case obs.ch <- record:
	case <-obs.ctx.Done():
	}
}
