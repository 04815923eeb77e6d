// Package eventbus is the guard's in-process pub/sub rail: handlers
// publish events as they run, and anything downstream (session metrics,
// diagnostics) subscribes without the publisher needing to know who's
// listening.
package eventbus

import (
	"fmt"
	"reflect"
	"sync"
)

// Event is a single published occurrence.
type Event struct {
	Name    string
	Payload any
}

// Handler receives a published Event. A Handler that panics or returns
// an error is isolated: its failure is reported but does not stop
// subsequent subscribers from running.
type Handler func(Event) error

// Bus is an ordered, synchronous pub/sub dispatcher. Subscribers for a
// given event name are called in subscription order; publishing is
// synchronous and blocks until every subscriber has run.
type Bus struct {
	mu        sync.Mutex
	subs      map[string][]Handler
	log       []Event
	onFailure func(event string, err error)
}

// New returns an empty Bus. onFailure, if non-nil, is called whenever a
// subscriber returns an error or panics; if nil, failures are silently
// swallowed per the fail-closed-never-fail-loud event contract.
func New(onFailure func(event string, err error)) *Bus {
	return &Bus{subs: make(map[string][]Handler), onFailure: onFailure}
}

// Subscribe registers handler for event. Subscribing the same handler
// twice for the same event is a no-op (handlers are compared by pointer
// identity via reflect, matching Go's lack of func equality).
func (b *Bus) Subscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ptr := reflect.ValueOf(handler).Pointer()
	for _, existing := range b.subs[event] {
		if reflect.ValueOf(existing).Pointer() == ptr {
			return
		}
	}
	b.subs[event] = append(b.subs[event], handler)
}

// Unsubscribe removes every registration of handler for event.
func (b *Bus) Unsubscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ptr := reflect.ValueOf(handler).Pointer()
	kept := b.subs[event][:0]
	for _, existing := range b.subs[event] {
		if reflect.ValueOf(existing).Pointer() != ptr {
			kept = append(kept, existing)
		}
	}
	b.subs[event] = kept
}

// Publish records the event and synchronously invokes every subscriber
// for it, in subscription order. A subscriber's error (return value or
// recovered panic) is reported via onFailure and does not abort the
// dispatch loop.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	b.log = append(b.log, event)
	handlers := append([]Handler(nil), b.subs[event.Name]...)
	b.mu.Unlock()

	for _, h := range handlers {
		b.dispatch(event, h)
	}
}

func (b *Bus) dispatch(event Event, h Handler) {
	defer func() {
		if r := recover(); r != nil && b.onFailure != nil {
			b.onFailure(event.Name, fmt.Errorf("eventbus: subscriber panic: %v", r))
		}
	}()
	if err := h(event); err != nil && b.onFailure != nil {
		b.onFailure(event.Name, err)
	}
}

// ListEvents returns every event published so far, in publication order.
func (b *Bus) ListEvents() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.log...)
}

// Clear removes subscribers for event, leaving the published log intact.
func (b *Bus) Clear(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, event)
}

// ClearAll removes every subscriber for every event and empties the log.
func (b *Bus) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string][]Handler)
	b.log = nil
}
