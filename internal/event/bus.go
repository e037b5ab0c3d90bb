package event

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/luciancaetano/showdown"
)

// ErrWaiterPending is returned by Await when a waiter for the kind exists.
var ErrWaiterPending = errors.New("waiter already pending")

type subscription struct {
	id      uint64
	handler showdown.Handler
}

type waiter struct {
	future *Future[showdown.Event]
	match  func(showdown.Event) bool
}

// Bus dispatches events to handlers registered per kind.
type Bus struct {
	mu      sync.RWMutex
	nextID  uint64
	subs    map[showdown.EventKind][]subscription
	waiters map[showdown.EventKind]waiter
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs:    make(map[showdown.EventKind][]subscription),
		waiters: make(map[showdown.EventKind]waiter),
	}
}

// On registers handler for kind and returns a function removing it.
func (b *Bus) On(kind showdown.EventKind, handler showdown.Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.subs[kind]
		for i, s := range subs {
			if s.id == id {
				b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit calls the handlers of ev's kind in registration order, then resolves
// and clears the pending waiter of that kind if ev matches it.
func (b *Bus) Emit(ev showdown.Event) {
	kind := ev.Kind()

	b.mu.RLock()
	subs := b.subs[kind]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(ev)
	}

	b.mu.Lock()
	w, ok := b.waiters[kind]
	if ok && w.match != nil && !w.match(ev) {
		ok = false
	}
	if ok {
		delete(b.waiters, kind)
	}
	b.mu.Unlock()

	if ok {
		w.future.Resolve(ev)
	}
}

// Await returns a future resolved by the next event of kind for which match
// returns true. A nil match accepts any event. Only one waiter per kind may
// be pending.
func (b *Bus) Await(kind showdown.EventKind, match func(showdown.Event) bool) (*Future[showdown.Event], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.waiters[kind]; ok {
		return nil, errors.Wrapf(ErrWaiterPending, "kind %s", kind)
	}
	f := NewFuture[showdown.Event]()
	b.waiters[kind] = waiter{future: f, match: match}
	return f, nil
}

// Release removes f if it is still the pending waiter of kind.
func (b *Bus) Release(kind showdown.EventKind, f *Future[showdown.Event]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w, ok := b.waiters[kind]; ok && w.future == f {
		delete(b.waiters, kind)
	}
}

// CancelWaiters fails and clears every pending waiter.
func (b *Bus) CancelWaiters(err error) {
	b.mu.Lock()
	waiters := b.waiters
	b.waiters = make(map[showdown.EventKind]waiter)
	b.mu.Unlock()

	for _, w := range waiters {
		w.future.Fail(err)
	}
}
