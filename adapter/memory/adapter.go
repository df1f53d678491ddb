package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/trickstertwo/xdelay"
)

const TransportName = "memory"

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("memory transport is closed")

func init() {
	if err := xdelay.RegisterTransport(TransportName, func(cfg map[string]any) (xdelay.Transport, error) {
		return NewTransport(ConfigFromMap(cfg)), nil
	}); err != nil {
		panic(fmt.Errorf("xdelay/memory: failed to register transport: %w", err))
	}
}

// Config controls memory transport behavior.
type Config struct {
	// Retain is the number of messages kept per topic for inspection
	// (default: 1024, oldest dropped first).
	Retain int
}

func ConfigFromMap(cfg map[string]any) Config {
	getInt := func(k string, d int) int {
		switch v := cfg[k].(type) {
		case int:
			return v
		case int32:
			return int(v)
		case int64:
			return int(v)
		case float64:
			return int(v)
		default:
			return d
		}
	}

	return Config{
		Retain: max(1, getInt("retain", 1024)),
	}
}

// toMap converts Config to the generic map expected by the transport factory.
func (c Config) toMap() map[string]any {
	return map[string]any{
		"retain": c.Retain,
	}
}

// Handler consumes one message published to a topic.
type Handler func(ctx context.Context, msg *xdelay.Message) error

// Transport implements xdelay.Transport in process (dev/testing). Publish
// hands each message to the topic's handlers synchronously, so a handler
// error fails the flush of that entry.
type Transport struct {
	cfg Config

	mu     sync.RWMutex
	topics map[string]*topic

	closed atomic.Bool

	metrics *transportMetrics
}

type transportMetrics struct {
	published     atomic.Uint64
	delivered     atomic.Uint64
	publishErrors atomic.Uint64
}

var _ xdelay.Transport = (*Transport)(nil)

// NewTransport creates a new in-memory transport.
func NewTransport(cfg Config) *Transport {
	if cfg.Retain < 1 {
		cfg.Retain = 1024
	}

	return &Transport{
		cfg:     cfg,
		topics:  make(map[string]*topic),
		metrics: &transportMetrics{},
	}
}

// Publish records messages on the topic and fans them out to its handlers.
func (t *Transport) Publish(ctx context.Context, topic string, msgs ...*xdelay.Message) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if len(msgs) == 0 {
		return nil
	}

	top := t.ensureTopic(topic)

	for _, m := range msgs {
		if m == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		handlers := top.append(m, t.cfg.Retain)
		t.metrics.published.Add(1)

		for _, h := range handlers {
			if err := h.fn(ctx, m); err != nil {
				t.metrics.publishErrors.Add(1)
				return fmt.Errorf("memory: topic %q: %w", topic, err)
			}
			t.metrics.delivered.Add(1)
		}
	}

	return nil
}

// Subscribe registers a handler for topic. Close the subscription to stop it.
func (t *Transport) Subscribe(topic string, h Handler) (*Subscription, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}
	if h == nil {
		return nil, errors.New("memory: handler must not be nil")
	}

	top := t.ensureTopic(topic)
	sub := &handler{fn: h}

	top.mu.Lock()
	top.handlers = append(top.handlers, sub)
	top.mu.Unlock()

	return &Subscription{close: func() { top.remove(sub) }}, nil
}

// Messages returns the retained messages of topic, oldest first.
func (t *Transport) Messages(topic string) []*xdelay.Message {
	t.mu.RLock()
	top, ok := t.topics[topic]
	t.mu.RUnlock()
	if !ok {
		return nil
	}

	top.mu.RLock()
	defer top.mu.RUnlock()
	out := make([]*xdelay.Message, len(top.log))
	copy(out, top.log)
	return out
}

// Close gracefully shuts down the transport.
func (t *Transport) Close(_ context.Context) error {
	if t.closed.Swap(true) {
		return nil
	}

	t.mu.Lock()
	t.topics = make(map[string]*topic)
	t.mu.Unlock()

	return nil
}

// Stats returns transport telemetry.
type Stats struct {
	Published     uint64
	Delivered     uint64
	PublishErrors uint64
}

// Stats returns current transport metrics.
func (t *Transport) Stats() Stats {
	return Stats{
		Published:     t.metrics.published.Load(),
		Delivered:     t.metrics.delivered.Load(),
		PublishErrors: t.metrics.publishErrors.Load(),
	}
}

// Subscription is an active topic handler.
type Subscription struct {
	once  sync.Once
	close func()
}

func (s *Subscription) Close() error {
	s.once.Do(s.close)
	return nil
}

type handler struct {
	fn Handler
}

type topic struct {
	mu       sync.RWMutex
	log      []*xdelay.Message
	handlers []*handler
}

// append records m and returns a snapshot of the current handlers.
func (tp *topic) append(m *xdelay.Message, retain int) []*handler {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	tp.log = append(tp.log, m)
	if over := len(tp.log) - retain; over > 0 {
		tp.log = append(tp.log[:0:0], tp.log[over:]...)
	}

	hs := make([]*handler, len(tp.handlers))
	copy(hs, tp.handlers)
	return hs
}

func (tp *topic) remove(h *handler) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	for i, x := range tp.handlers {
		if x == h {
			tp.handlers = append(tp.handlers[:i], tp.handlers[i+1:]...)
			return
		}
	}
}

func (t *Transport) ensureTopic(name string) *topic {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tp, ok := t.topics[name]; ok {
		return tp
	}

	tp := &topic{}
	t.topics[name] = tp
	return tp
}
