package xdelay

import "sync/atomic"

// Metrics is a point-in-time view of dispatcher counters.
type Metrics struct {
	Delayed   uint64
	Forwarded uint64
	Flushed   uint64
	Failed    uint64
	Queued    int
}

// dispatcherMetrics uses atomics so GetMetrics can be read from another goroutine.
type dispatcherMetrics struct {
	delayed   atomic.Uint64
	forwarded atomic.Uint64
	flushed   atomic.Uint64
	failed    atomic.Uint64
	queued    atomic.Int64
}
