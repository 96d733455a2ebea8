// Package core implements commonly used tools.
package core

import "sync"

// Observer is the interface to implement to watch events.
type Observer interface {
	NotifyCallback(event interface{})
}

// Observable provides primitives to add and remove observers and to notify
// them of new events.
type Observable interface {
	// Add adds the observer to the list of observers that will be notified of
	// new events.
	Add(observer Observer)

	// Remove removes the observer from the list thus stopping it from receiving
	// new events.
	Remove(observer Observer)

	// Notify notifies the observers of a new event.
	Notify(event interface{})
}

// Watcher is an implementation of the Observable interface. Observers are
// notified in the order they were added.
//
// - implements core.Observable
type Watcher struct {
	sync.RWMutex

	observers []Observer
}

// NewWatcher creates a new empty watcher.
func NewWatcher() *Watcher {
	return &Watcher{}
}

// Add implements core.Observable. It adds the observer to the list of observers
// that will be notified of new events. An observer already in the list is
// ignored.
func (w *Watcher) Add(observer Observer) {
	w.Lock()
	defer w.Unlock()

	for _, o := range w.observers {
		if o == observer {
			return
		}
	}

	w.observers = append(w.observers, observer)
}

// Remove implements core.Observable. It removes the observer from the list thus
// stopping it from receiving new events.
func (w *Watcher) Remove(observer Observer) {
	w.Lock()
	defer w.Unlock()

	for i, o := range w.observers {
		if o == observer {
			w.observers = append(w.observers[:i], w.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of observers.
func (w *Watcher) Len() int {
	w.RLock()
	defer w.RUnlock()

	return len(w.observers)
}

// Notify implements core.Observable. It notifies the whole list of observers
// one after each other.
func (w *Watcher) Notify(event interface{}) {
	w.RLock()
	observers := append([]Observer{}, w.observers...)
	w.RUnlock()

	for _, o := range observers {
		o.NotifyCallback(event)
	}
}

// ObserverFunc is an adapter to use a function as an observer. The pointer is
// what identifies the observer in the watcher.
//
// - implements core.Observer
type ObserverFunc struct {
	fn func(event interface{})
}

// NewObserverFunc returns an observer calling the function for every event.
func NewObserverFunc(fn func(event interface{})) *ObserverFunc {
	return &ObserverFunc{fn: fn}
}

// NotifyCallback implements core.Observer.
func (o *ObserverFunc) NotifyCallback(event interface{}) {
	o.fn(event)
}
