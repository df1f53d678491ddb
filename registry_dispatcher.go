package xdelay

// RegistryDispatcher is a Dispatcher over a Registry. Listener management is
// forwarded to the wrapped registry as is; only publishing is delayed.
type RegistryDispatcher[E any] struct {
	*Dispatcher[E]
	registry Registry[E]
}

func (r *RegistryDispatcher[E]) AddListener(name string, l Listener[E], priority int) {
	r.registry.AddListener(name, l, priority)
}

func (r *RegistryDispatcher[E]) RemoveListener(name string, l Listener[E]) {
	r.registry.RemoveListener(name, l)
}

func (r *RegistryDispatcher[E]) AddSubscriber(s Subscriber[E]) {
	r.registry.AddSubscriber(s)
}

func (r *RegistryDispatcher[E]) RemoveSubscriber(s Subscriber[E]) {
	r.registry.RemoveSubscriber(s)
}

func (r *RegistryDispatcher[E]) Listeners(name string) []Listener[E] {
	return r.registry.Listeners(name)
}

func (r *RegistryDispatcher[E]) ListenerPriority(name string, l Listener[E]) (int, bool) {
	return r.registry.ListenerPriority(name, l)
}

func (r *RegistryDispatcher[E]) HasListeners(name string) bool {
	return r.registry.HasListeners(name)
}
