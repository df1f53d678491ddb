package xdelay

// Entry is one delayed publish call, kept as given until flushed.
type Entry[E any] struct {
	// Name is the logical event name. Empty for self-describing events.
	Name string
	// Event is the caller's value. Never inspected by the dispatcher.
	Event E
}

// Named is implemented by self-describing events that carry their own name.
type Named interface {
	EventName() string
}

// Stoppable is implemented by events whose propagation listeners may stop.
type Stoppable interface {
	PropagationStopped() bool
}

// nameOf returns the name a self-describing event reports, if any.
func nameOf(event any) string {
	if n, ok := event.(Named); ok {
		return n.EventName()
	}
	return ""
}
