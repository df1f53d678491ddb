package xdelay

import (
	"context"
	"sync"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// Dispatcher decorates a Publisher and holds back published events until
// Flush. Build it with NewBuilder or New.
//
// A Dispatcher is not safe for concurrent Publish/Flush. Callers sharing one
// across goroutines must synchronize externally.
type Dispatcher[E any] struct {
	publisher Publisher[E]
	enabled   bool
	arbiter   Arbiter[E]
	onFailure FailureHandler[E]
	flush     FlushFunc[E]

	clock  xclock.Clock
	logger *xlog.Logger

	queue []Entry[E]

	observersMu sync.RWMutex
	observers   []Observer

	metrics *dispatcherMetrics
}

// AlwaysDelay is the default Arbiter: every event is delayed.
func AlwaysDelay[E any](string, E) (bool, error) { return true, nil }

// Rethrow is the default FailureHandler. It returns the delivery failure
// unchanged, which stops the flush.
func Rethrow[E any](_ context.Context, err error, _ Entry[E]) error { return err }

// Forward returns a FlushFunc delivering entries to p, as an immediate
// publish would.
func Forward[E any](p Publisher[E]) FlushFunc[E] {
	return func(ctx context.Context, entry Entry[E]) error {
		_, err := p.Publish(ctx, entry.Name, entry.Event)
		return err
	}
}

// Publish delays the event or forwards it to the wrapped Publisher.
// A delayed event is returned unchanged. A forwarded event returns whatever
// the wrapped Publisher returned.
func (d *Dispatcher[E]) Publish(ctx context.Context, name string, event E) (E, error) {
	delay, err := d.shouldDelay(name, event)
	if err != nil {
		return event, err
	}

	if delay {
		d.queue = append(d.queue, Entry[E]{Name: name, Event: event})
		d.metrics.delayed.Add(1)
		d.metrics.queued.Store(int64(len(d.queue)))
		d.notify(Event{Type: EventDelayed, EventName: name, Queued: len(d.queue)})
		return event, nil
	}

	d.metrics.forwarded.Add(1)
	out, err := d.publisher.Publish(ctx, name, event)
	d.notify(Event{Type: EventForwarded, EventName: name, Queued: len(d.queue), Err: err})
	return out, err
}

// Dispatch publishes a self-describing event. The name comes from
// Named.EventName when the event implements it.
func (d *Dispatcher[E]) Dispatch(ctx context.Context, event E) (E, error) {
	return d.Publish(ctx, nameOf(event), event)
}

// Flush drains the queue oldest first, handing each entry to the flush action.
//
// A delivery failure goes to the FailureHandler. The failed entry is never
// requeued. If the handler returns an error, Flush stops and returns it; the
// entries not yet dequeued stay queued for the next Flush.
func (d *Dispatcher[E]) Flush(ctx context.Context) error {
	if len(d.queue) == 0 {
		return nil
	}

	ctx = withFlushScope(ctx, d.logger, d.clock)

	start := d.clock.Now()
	d.notify(Event{Type: EventFlushStart, Queued: len(d.queue)})

	for len(d.queue) > 0 {
		entry := d.queue[0]
		d.queue[0] = Entry[E]{}
		d.queue = d.queue[1:]
		d.metrics.queued.Store(int64(len(d.queue)))

		began := d.clock.Now()
		err := d.flush(ctx, entry)
		if err == nil {
			d.metrics.flushed.Add(1)
			d.notify(Event{
				Type:      EventDelivered,
				EventName: entry.Name,
				Queued:    len(d.queue),
				Duration:  d.clock.Since(began),
			})
			continue
		}

		d.metrics.failed.Add(1)
		d.notify(Event{
			Type:      EventDeliveryFailed,
			EventName: entry.Name,
			Queued:    len(d.queue),
			Duration:  d.clock.Since(began),
			Err:       err,
		})

		if herr := d.onFailure(ctx, err, entry); herr != nil {
			d.notify(Event{Type: EventFlushDone, Queued: len(d.queue), Duration: d.clock.Since(start), Err: herr})
			return herr
		}
	}

	// Release the drained backing array.
	d.queue = nil
	d.notify(Event{Type: EventFlushDone, Duration: d.clock.Since(start)})
	return nil
}

// Len returns the number of delayed entries.
func (d *Dispatcher[E]) Len() int { return len(d.queue) }

// Pending returns a copy of the queue, oldest first.
func (d *Dispatcher[E]) Pending() []Entry[E] {
	out := make([]Entry[E], len(d.queue))
	copy(out, d.queue)
	return out
}

// Enabled reports whether the dispatcher delays events at all.
func (d *Dispatcher[E]) Enabled() bool { return d.enabled }

// GetMetrics returns current dispatcher counters.
func (d *Dispatcher[E]) GetMetrics() Metrics {
	return Metrics{
		Delayed:   d.metrics.delayed.Load(),
		Forwarded: d.metrics.forwarded.Load(),
		Flushed:   d.metrics.flushed.Load(),
		Failed:    d.metrics.failed.Load(),
		Queued:    int(d.metrics.queued.Load()),
	}
}

// AddObserver registers an observer for lifecycle events.
func (d *Dispatcher[E]) AddObserver(obs Observer) {
	if obs == nil {
		return
	}
	d.observersMu.Lock()
	d.observers = append(d.observers, obs)
	d.observersMu.Unlock()
}

// RemoveObserver removes an observer. ObserverFunc values cannot be removed.
func (d *Dispatcher[E]) RemoveObserver(obs Observer) {
	if obs == nil {
		return
	}
	if _, ok := obs.(ObserverFunc); ok {
		return
	}
	d.observersMu.Lock()
	defer d.observersMu.Unlock()

	for i, o := range d.observers {
		if o == obs {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			break
		}
	}
}

func (d *Dispatcher[E]) shouldDelay(name string, event E) (bool, error) {
	if !d.enabled {
		return false, nil
	}
	return d.arbiter(name, event)
}

func (d *Dispatcher[E]) notify(e Event) {
	d.observersMu.RLock()
	if len(d.observers) == 0 {
		d.observersMu.RUnlock()
		return
	}
	obs := make([]Observer, len(d.observers))
	copy(obs, d.observers)
	d.observersMu.RUnlock()

	for _, o := range obs {
		o.OnEvent(e)
	}
}
