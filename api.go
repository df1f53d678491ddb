package xdelay

import (
	"context"
)

// Publisher is the Strategy interface for the wrapped dispatch capability.
// Name is empty for self-describing events.
type Publisher[E any] interface {
	Publish(ctx context.Context, name string, event E) (E, error)
}

// PublisherFunc is an Adapter for name-carrying dispatch functions.
type PublisherFunc[E any] func(ctx context.Context, name string, event E) (E, error)

func (f PublisherFunc[E]) Publish(ctx context.Context, name string, event E) (E, error) {
	return f(ctx, name, event)
}

// EventPublisherFunc is an Adapter for dispatch functions that only take the
// event. The name is dropped.
type EventPublisherFunc[E any] func(ctx context.Context, event E) (E, error)

func (f EventPublisherFunc[E]) Publish(ctx context.Context, _ string, event E) (E, error) {
	return f(ctx, event)
}

// Listener handles one published event.
type Listener[E any] interface {
	Handle(ctx context.Context, name string, event E) error
}

// Subscription binds a listener to an event name with a priority.
type Subscription[E any] struct {
	Name     string
	Listener Listener[E]
	Priority int
}

// Subscriber groups listeners registered and removed together.
// Implementations must be comparable (use pointer receivers).
type Subscriber[E any] interface {
	SubscribedEvents() []Subscription[E]
}

// Registry is a Publisher that also manages its own listeners.
// An empty name passed to Listeners or HasListeners means any event.
type Registry[E any] interface {
	Publisher[E]
	AddListener(name string, l Listener[E], priority int)
	RemoveListener(name string, l Listener[E])
	AddSubscriber(s Subscriber[E])
	RemoveSubscriber(s Subscriber[E])
	Listeners(name string) []Listener[E]
	ListenerPriority(name string, l Listener[E]) (int, bool)
	HasListeners(name string) bool
}

// Arbiter decides whether a publish call is delayed.
type Arbiter[E any] func(name string, event E) (bool, error)

// FlushFunc delivers one delayed entry.
type FlushFunc[E any] func(ctx context.Context, entry Entry[E]) error

// FailureHandler reacts to a failed delivery during Flush. A non-nil return
// stops the flush and is returned to the caller.
type FailureHandler[E any] func(ctx context.Context, err error, entry Entry[E]) error

// FlushMiddleware composes delivery concerns around a FlushFunc.
type FlushMiddleware[E any] func(next FlushFunc[E]) FlushFunc[E]

// Transport is the Strategy interface for brokers that delayed entries can
// be flushed to.
type Transport interface {
	Publish(ctx context.Context, topic string, msgs ...*Message) error
	Close(ctx context.Context) error
}

// Codec is the Strategy for encoding/decoding payloads on the wire.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Observer receives dispatcher lifecycle events. Called synchronously.
type Observer interface {
	OnEvent(e Event)
}

// API is the full decorator surface.
type API[E any] interface {
	Publisher[E]
	Dispatch(ctx context.Context, event E) (E, error)
	Flush(ctx context.Context) error
	Len() int
	Pending() []Entry[E]
	Enabled() bool
	GetMetrics() Metrics
	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
}

var _ API[any] = (*Dispatcher[any])(nil)
var _ Registry[any] = (*RegistryDispatcher[any])(nil)
