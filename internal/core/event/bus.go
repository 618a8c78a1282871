package event

import "sync"

// Handler receives one delivered event.
type Handler func(Payload)

// Bus is a double-buffered event bus. Events emitted in tick N are readable
// in tick N+1. SwapBuffers() is called at tick start by EventDispatchSystem.
// Handlers are kept in a per-kind dispatch table.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []Payload
	back     []Payload
	handlers map[Kind][]Handler
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]Payload, 0, 64),
		back:     make([]Payload, 0, 64),
		handlers: make(map[Kind][]Handler),
	}
}

// Emit queues an event into the back buffer (will be readable next tick).
func (b *Bus) Emit(p Payload) {
	b.back = append(b.back, p)
}

// Listen registers fn for every event of the given kind.
func (b *Bus) Listen(kind Kind, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], fn)
}

// Subscribe registers a typed handler for the payload type T.
func Subscribe[T Payload](b *Bus, fn func(T)) {
	var zero T
	b.Listen(zero.Kind(), func(p Payload) {
		if ev, ok := p.(T); ok {
			fn(ev)
		}
	})
}

// SwapBuffers rotates back→front and clears the new back buffer.
// Called once at tick start.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers front-buffer events in emission order. Events emitted
// by handlers land in the back buffer and are delivered next tick.
func (b *Bus) DispatchAll() {
	for _, ev := range b.front {
		for _, h := range b.handlers[ev.Kind()] {
			h(ev)
		}
	}
	b.front = b.front[:0]
}

// Pending returns the number of events waiting for the next swap.
func (b *Bus) Pending() int { return len(b.back) }
