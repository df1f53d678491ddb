package xdelay

import (
	"time"
)

// EventType enumerates dispatcher lifecycle events for the Observer pattern.
type EventType string

const (
	EventDelayed        EventType = "delayed"
	EventForwarded      EventType = "forwarded"
	EventFlushStart     EventType = "flush_start"
	EventFlushDone      EventType = "flush_done"
	EventDelivered      EventType = "delivered"
	EventDeliveryFailed EventType = "delivery_failed"
)

// Event carries telemetry for observers.
type Event struct {
	Type      EventType
	EventName string
	// Queued is the queue length after the lifecycle step.
	Queued   int
	Duration time.Duration
	Err      error
}
