package memory

import (
	"fmt"

	"github.com/trickstertwo/xdelay"
)

// Use builds the in-memory transport through the xdelay transport registry
// and returns it together with a flush action sending delayed entries to topic.
//
// Example:
//
//	tr, flush := memory.Use[OrderPlaced](memory.Config{Retain: 256}, "orders")
//	d, _ := xdelay.New(pub, func(b *xdelay.Builder[OrderPlaced]) {
//	    b.WithFlusher(flush)
//	})
func Use[E any](cfg Config, topic string, opts ...xdelay.FlusherOption) (*Transport, xdelay.FlushFunc[E]) {
	tr, err := xdelay.NewTransport(TransportName, cfg.toMap())
	if err != nil {
		panic(fmt.Errorf("memory.Use: %w", err))
	}
	mt := tr.(*Transport)
	return mt, xdelay.TransportFlusher[E](mt, topic, opts...)
}
