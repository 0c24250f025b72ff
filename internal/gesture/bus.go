// Package gesture carries user interactions from the shell to components that
// need to know a person is present, such as autoplay unlocking.
package gesture

import (
	"sync"
	"time"
)

// Kind is the type of user interaction.
type Kind int

const (
	Click Kind = iota
	TouchStart
	KeyDown
)

func (k Kind) String() string {
	switch k {
	case Click:
		return "click"
	case TouchStart:
		return "touchstart"
	case KeyDown:
		return "keydown"
	default:
		return "unknown"
	}
}

// Event is a single user interaction.
type Event struct {
	Kind Kind
	At   time.Time
}

// Handler receives gesture events.
type Handler func(Event)

// Source delivers gesture events to subscribers.
type Source interface {
	Subscribe(kind Kind, fn Handler) (cancel func())
}

// Activation reports whether the user has interacted at least once.
type Activation interface {
	HasBeenActive() bool
}

// Bus is a document-wide gesture dispatcher. The zero value is ready to use.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[Kind][]entry
	active   bool
}

type entry struct {
	id int
	fn Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for kind. The returned cancel func is idempotent.
func (b *Bus) Subscribe(kind Kind, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers == nil {
		b.handlers = make(map[Kind][]entry)
	}
	b.nextID++
	id := b.nextID
	b.handlers[kind] = append(b.handlers[kind], entry{id: id, fn: fn})

	return func() { b.remove(kind, id) }
}

func (b *Bus) remove(kind Kind, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.handlers[kind]
	for i, e := range list {
		if e.id == id {
			b.handlers[kind] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Dispatch marks the user as active and runs the handlers subscribed to
// e.Kind in subscription order, on the calling goroutine.
func (b *Bus) Dispatch(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.Lock()
	b.active = true
	list := make([]entry, len(b.handlers[e.Kind]))
	copy(list, b.handlers[e.Kind])
	b.mu.Unlock()

	for _, h := range list {
		h.fn(e)
	}
}

// HasBeenActive reports whether any gesture has been dispatched.
func (b *Bus) HasBeenActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Len returns the number of live subscriptions for kind.
func (b *Bus) Len(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[kind])
}
