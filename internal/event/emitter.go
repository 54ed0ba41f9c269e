package event

import (
	"sync"
	"sync/atomic"
)

// Listener receives lifecycle events.
type Listener func(Event)

// Emitter fans events out to subscribed listeners synchronously. Listener
// panics are recovered and counted so one bad listener cannot take down the
// engine operation that emitted the event.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int

	delivered atomic.Uint64
	panics    atomic.Uint64
}

// NewEmitter creates an emitter with no listeners.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[int]Listener)}
}

// Subscribe registers a listener and returns its subscription ID.
func (e *Emitter) Subscribe(fn Listener) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.listeners[e.nextID] = fn
	return e.nextID
}

// Unsubscribe removes a listener by subscription ID.
func (e *Emitter) Unsubscribe(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.listeners, id)
}

// Emit delivers ev to all listeners. Delivery order is unspecified.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	listeners := make([]Listener, 0, len(e.listeners))
	for _, fn := range e.listeners {
		listeners = append(listeners, fn)
	}
	e.mu.RUnlock()

	for _, fn := range listeners {
		e.deliver(fn, ev)
	}
}

func (e *Emitter) deliver(fn Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.panics.Add(1)
		}
	}()
	fn(ev)
	e.delivered.Add(1)
}

// Stats reports delivery counts.
type Stats struct {
	Delivered uint64
	Panics    uint64
}

// Stats returns a copy of the emitter's counters.
func (e *Emitter) Stats() Stats {
	return Stats{
		Delivered: e.delivered.Load(),
		Panics:    e.panics.Load(),
	}
}

// ListenerCount returns the number of subscribed listeners.
func (e *Emitter) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
