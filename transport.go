package xdelay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/trickstertwo/xclock"
)

// TransportFactory constructs transports from a config blob.
type TransportFactory func(cfg map[string]any) (Transport, error)

var (
	transportRegistryMu sync.RWMutex
	transportRegistry   = map[string]TransportFactory{}
)

// RegisterTransport registers a backend adapter.
func RegisterTransport(name string, factory TransportFactory) error {
	if name == "" {
		return errors.New("transport name must not be empty")
	}
	if factory == nil {
		return errors.New("transport factory must not be nil")
	}
	transportRegistryMu.Lock()
	transportRegistry[name] = factory
	transportRegistryMu.Unlock()
	return nil
}

// NewTransport constructs a transport by name with config.
func NewTransport(name string, cfg map[string]any) (Transport, error) {
	transportRegistryMu.RLock()
	f, ok := transportRegistry[name]
	transportRegistryMu.RUnlock()
	if !ok {
		return nil, ErrUnknownTransport{name: name}
	}
	return f(cfg)
}

type flusherConfig struct {
	codec    Codec
	clock    xclock.Clock
	metadata map[string]string
}

// FlusherOption configures TransportFlusher.
type FlusherOption func(*flusherConfig)

// WithCodec selects the payload codec (default: JSON).
func WithCodec(c Codec) FlusherOption {
	return func(fc *flusherConfig) {
		if c != nil {
			fc.codec = c
		}
	}
}

// WithFlusherClock stamps ProducedAt from c instead of the context clock.
func WithFlusherClock(c xclock.Clock) FlusherOption {
	return func(fc *flusherConfig) { fc.clock = c }
}

// WithMetadata attaches static metadata to every message.
func WithMetadata(meta map[string]string) FlusherOption {
	return func(fc *flusherConfig) { fc.metadata = meta }
}

// TransportFlusher returns a flush action that sends each delayed entry to
// topic on t instead of the wrapped publisher. Entries without a name use
// the event's own Named.EventName.
func TransportFlusher[E any](t Transport, topic string, opts ...FlusherOption) FlushFunc[E] {
	fc := &flusherConfig{codec: JSONCodec{}}
	for _, o := range opts {
		if o != nil {
			o(fc)
		}
	}

	return func(ctx context.Context, entry Entry[E]) error {
		data, err := fc.codec.Marshal(entry.Event)
		if err != nil {
			return fmt.Errorf("xdelay: encode %q: %w", entry.Name, err)
		}

		clk := fc.clock
		if clk == nil {
			if c, ok := ClockFromContext(ctx); ok {
				clk = c
			} else {
				clk = xclock.Default()
			}
		}

		name := entry.Name
		if name == "" {
			name = nameOf(entry.Event)
		}

		var meta map[string]string
		if len(fc.metadata) > 0 {
			meta = make(map[string]string, len(fc.metadata))
			for k, v := range fc.metadata {
				meta[k] = v
			}
		}

		msg := &Message{
			ID:         uuid.NewString(),
			Name:       name,
			Payload:    data,
			Metadata:   meta,
			ProducedAt: clk.Now(),
		}
		return t.Publish(ctx, topic, msg)
	}
}
