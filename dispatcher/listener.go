package dispatcher

import (
	"context"

	"github.com/trickstertwo/xdelay"
)

type funcListener[E any] struct {
	fn func(ctx context.Context, name string, event E) error
}

func (l *funcListener[E]) Handle(ctx context.Context, name string, event E) error {
	return l.fn(ctx, name, event)
}

// ListenerFunc wraps fn in a Listener. Each call returns a distinct
// listener, so keep the result to remove it later.
func ListenerFunc[E any](fn func(ctx context.Context, name string, event E) error) xdelay.Listener[E] {
	return &funcListener[E]{fn: fn}
}

// StaticSubscriber adapts a static subscription list into a Subscriber.
type StaticSubscriber[E any] struct {
	Subscriptions []xdelay.Subscription[E]
}

func (s *StaticSubscriber[E]) SubscribedEvents() []xdelay.Subscription[E] {
	return s.Subscriptions
}
