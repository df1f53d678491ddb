package xdelay

import (
	"github.com/trickstertwo/xlog"
)

// ObserverFunc lets a plain function satisfy Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// LoggingObserver writes dispatcher lifecycle events to an xlog logger.
// Delivery failures and failed flushes log at Warn, the rest at Debug.
type LoggingObserver struct {
	Logger *xlog.Logger
}

func (o LoggingObserver) OnEvent(e Event) {
	if o.Logger == nil {
		return
	}

	l := o.Logger.With(xlog.Str("type", string(e.Type)))
	if e.EventName != "" {
		l = l.With(xlog.Str("event_name", e.EventName))
	}
	if e.Duration > 0 {
		l = l.With(xlog.Dur("duration", e.Duration))
	}

	switch e.Type {
	case EventDelayed:
		l.Debug().Msg("xdelay: event delayed")
	case EventForwarded:
		l.Debug().Err(e.Err).Msg("xdelay: event forwarded")
	case EventFlushStart:
		l.Debug().Msg("xdelay: flush started")
	case EventDelivered:
		l.Debug().Msg("xdelay: delayed event delivered")
	case EventDeliveryFailed:
		l.Warn().Err(e.Err).Msg("xdelay: delayed event failed")
	case EventFlushDone:
		if e.Err != nil {
			l.Warn().Err(e.Err).Msg("xdelay: flush aborted")
			return
		}
		l.Debug().Msg("xdelay: flush finished")
	}
}
