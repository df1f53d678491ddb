package xdelay

import (
	"time"
)

// Message is the envelope a delayed entry travels in when flushed to a
// Transport. The Payload is encoded via Codec.
type Message struct {
	// ID is a unique message identifier.
	ID string
	// Name is the entry's event name.
	Name string
	// Payload is the encoded event.
	Payload []byte
	// Metadata is a bag for headers/tracing/tenancy/etc.
	Metadata map[string]string
	// ProducedAt is when the entry was flushed (from injected clock).
	ProducedAt time.Time
}
