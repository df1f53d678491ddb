package redisstream

import (
	"fmt"

	"github.com/trickstertwo/xdelay"
)

const TransportName = "redis-streams"

func init() {
	if err := xdelay.RegisterTransport(TransportName, func(cfg map[string]any) (xdelay.Transport, error) {
		tr, err := NewTransport(ConfigFromMap(cfg))
		if err != nil {
			return nil, err
		}
		return tr, nil
	}); err != nil {
		panic(fmt.Errorf("xdelay: failed to register transport %q: %w", TransportName, err))
	}
}

// Use connects through the xdelay transport registry and returns the
// transport with a flush action appending delayed entries to stream.
// It panics if Redis is unreachable.
func Use[E any](cfg Config, stream string, opts ...xdelay.FlusherOption) (xdelay.Transport, xdelay.FlushFunc[E]) {
	tr, err := xdelay.NewTransport(TransportName, cfg.toMap())
	if err != nil {
		panic(fmt.Errorf("redisstream.Use: %w", err))
	}
	return tr, xdelay.TransportFlusher[E](tr, stream, opts...)
}
