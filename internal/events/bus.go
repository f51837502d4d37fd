package events

import "sync"

// Bus is a simple pub/sub dispatcher, ported from the same pattern the
// teacher codebase uses for its own (mail-domain) event bus: per-type
// handler lists plus an all-events list, each handler invoked on its own
// goroutine.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[EventType][]Handler
	allHandlers []Handler
	nextID      int
	unsubMap    map[int]func()
}

// NewBus builds an empty Bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		unsubMap: make(map[int]func()),
	}
}

// Publish dispatches event to every handler registered for its type plus
// every handler registered via SubscribeAll.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, h := range b.handlers[event.Type()] {
		go h(event)
	}
	for _, h := range b.allHandlers {
		go h(event)
	}
}

// Subscribe registers handler for events of type t, returning a function
// that unregisters it.
func (b *Bus) Subscribe(t EventType, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[t] = append(b.handlers[t], handler)
	idx := len(b.handlers[t]) - 1
	id := b.nextID
	b.nextID++

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.handlers[t]
		if idx < len(list) {
			b.handlers[t] = append(list[:idx], list[idx+1:]...)
		}
	}
	b.unsubMap[id] = unsub
	return unsub
}

// SubscribeAll registers handler for every event type, returning a function
// that unregisters it.
func (b *Bus) SubscribeAll(handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.allHandlers = append(b.allHandlers, handler)
	idx := len(b.allHandlers) - 1

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.allHandlers) {
			b.allHandlers = append(b.allHandlers[:idx], b.allHandlers[idx+1:]...)
		}
	}
}
