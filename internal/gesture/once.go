package gesture

import "sync"

// Subscription is a registration that can be cancelled.
type Subscription interface {
	Cancel()
	// Fired reports whether the handler has run.
	Fired() bool
}

type once struct {
	mu      sync.Mutex
	cancels []func()
	done    bool
	fired   bool
}

// Once subscribes fn to every kind in kinds. The first matching event removes
// all of the registrations and then runs fn; later events are never seen.
func Once(src Source, fn Handler, kinds ...Kind) Subscription {
	o := &once{}

	// Hold the lock while subscribing so a synchronous dispatch from another
	// goroutine cannot fire before every kind is registered.
	o.mu.Lock()
	for _, k := range kinds {
		o.cancels = append(o.cancels, src.Subscribe(k, func(e Event) {
			if o.claim() {
				fn(e)
			}
		}))
	}
	o.mu.Unlock()

	return o
}

// claim detaches every registration and reports whether the caller won the
// right to run the handler.
func (o *once) claim() bool {
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return false
	}
	o.done = true
	o.fired = true
	cancels := o.cancels
	o.cancels = nil
	o.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	return true
}

func (o *once) Cancel() {
	o.mu.Lock()
	o.done = true
	cancels := o.cancels
	o.cancels = nil
	o.mu.Unlock()

	for _, c := range cancels {
		c()
	}
}

func (o *once) Fired() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fired
}
