// Package dispatcher is an in-process, priority-ordered listener registry
// implementing xdelay.Registry. It is the publisher an xdelay.Dispatcher
// usually wraps when events are handled inside the same process.
package dispatcher

import (
	"context"
	"sort"
	"sync"

	"github.com/trickstertwo/xdelay"
)

type binding[E any] struct {
	listener xdelay.Listener[E]
	priority int
	seq      uint64
}

// Dispatcher calls listeners synchronously, higher priority first and in
// registration order among equal priorities.
type Dispatcher[E any] struct {
	mu        sync.RWMutex
	listeners map[string][]binding[E]
	seq       uint64
}

var _ xdelay.Registry[any] = (*Dispatcher[any])(nil)

// New returns an empty Dispatcher.
func New[E any]() *Dispatcher[E] {
	return &Dispatcher[E]{listeners: make(map[string][]binding[E])}
}

// Publish invokes the listeners registered for name and returns the event.
// It stops at the first listener error, or once a Stoppable event reports
// its propagation stopped.
func (d *Dispatcher[E]) Publish(ctx context.Context, name string, event E) (E, error) {
	for _, l := range d.Listeners(name) {
		if s, ok := any(event).(xdelay.Stoppable); ok && s.PropagationStopped() {
			break
		}
		if err := l.Handle(ctx, name, event); err != nil {
			return event, err
		}
	}
	return event, nil
}

// Dispatch publishes a self-describing event under its Named.EventName.
func (d *Dispatcher[E]) Dispatch(ctx context.Context, event E) (E, error) {
	name := ""
	if n, ok := any(event).(xdelay.Named); ok {
		name = n.EventName()
	}
	return d.Publish(ctx, name, event)
}

// AddListener registers l for name. Registering the same listener twice
// makes it run twice.
func (d *Dispatcher[E]) AddListener(name string, l xdelay.Listener[E], priority int) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	d.listeners[name] = append(d.listeners[name], binding[E]{listener: l, priority: priority, seq: d.seq})
}

// RemoveListener removes every registration of l for name.
func (d *Dispatcher[E]) RemoveListener(name string, l xdelay.Listener[E]) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.removeLocked(name, l)
}

func (d *Dispatcher[E]) AddSubscriber(s xdelay.Subscriber[E]) {
	if s == nil {
		return
	}
	for _, sub := range s.SubscribedEvents() {
		d.AddListener(sub.Name, sub.Listener, sub.Priority)
	}
}

func (d *Dispatcher[E]) RemoveSubscriber(s xdelay.Subscriber[E]) {
	if s == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, sub := range s.SubscribedEvents() {
		if sub.Listener != nil {
			d.removeLocked(sub.Name, sub.Listener)
		}
	}
}

// Listeners returns the listeners for name in call order. An empty name
// returns the listeners of every event, grouped by event name in
// lexical order.
func (d *Dispatcher[E]) Listeners(name string) []xdelay.Listener[E] {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if name != "" {
		return sorted(d.listeners[name])
	}

	names := make([]string, 0, len(d.listeners))
	for n := range d.listeners {
		names = append(names, n)
	}
	sort.Strings(names)

	var out []xdelay.Listener[E]
	for _, n := range names {
		out = append(out, sorted(d.listeners[n])...)
	}
	return out
}

// ListenerPriority reports the priority of the first registration of l for name.
func (d *Dispatcher[E]) ListenerPriority(name string, l xdelay.Listener[E]) (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, b := range d.listeners[name] {
		if b.listener == l {
			return b.priority, true
		}
	}
	return 0, false
}

func (d *Dispatcher[E]) HasListeners(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if name != "" {
		return len(d.listeners[name]) > 0
	}
	for _, bs := range d.listeners {
		if len(bs) > 0 {
			return true
		}
	}
	return false
}

func (d *Dispatcher[E]) removeLocked(name string, l xdelay.Listener[E]) {
	bs := d.listeners[name]
	kept := bs[:0]
	for _, b := range bs {
		if b.listener != l {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		delete(d.listeners, name)
		return
	}
	d.listeners[name] = kept
}

func sorted[E any](bs []binding[E]) []xdelay.Listener[E] {
	if len(bs) == 0 {
		return nil
	}
	cp := make([]binding[E], len(bs))
	copy(cp, bs)
	sort.SliceStable(cp, func(i, j int) bool {
		if cp[i].priority != cp[j].priority {
			return cp[i].priority > cp[j].priority
		}
		return cp[i].seq < cp[j].seq
	})

	out := make([]xdelay.Listener[E], len(cp))
	for i, b := range cp {
		out[i] = b.listener
	}
	return out
}
