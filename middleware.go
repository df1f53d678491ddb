package xdelay

import (
	"context"
	"fmt"

	"github.com/trickstertwo/xlog"
)

// RecoveryMiddleware converts a panicking flush action into a delivery
// failure wrapping ErrFlushPanic. Build always installs it.
func RecoveryMiddleware[E any]() FlushMiddleware[E] {
	return func(next FlushFunc[E]) FlushFunc[E] {
		return func(ctx context.Context, entry Entry[E]) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", ErrFlushPanic, r)
				}
			}()
			return next(ctx, entry)
		}
	}
}

// LoggingMiddleware logs each delivered entry. With a nil logger it uses
// the logger injected into the flush context.
func LoggingMiddleware[E any](l *xlog.Logger) FlushMiddleware[E] {
	return func(next FlushFunc[E]) FlushFunc[E] {
		return func(ctx context.Context, entry Entry[E]) error {
			lg := l
			if lg == nil {
				lg, _ = LoggerFromContext(ctx)
			}
			if lg == nil {
				return next(ctx, entry)
			}

			clk, ok := ClockFromContext(ctx)
			if !ok {
				return next(ctx, entry)
			}
			start := clk.Now()
			err := next(ctx, entry)
			if err != nil {
				lg.Warn().
					Str("event", entry.Name).
					Dur("dur", clk.Since(start)).
					Err(err).
					Msg("xdelay: delayed delivery failed")
				return err
			}
			lg.Debug().
				Str("event", entry.Name).
				Dur("dur", clk.Since(start)).
				Msg("xdelay: delayed delivery done")
			return nil
		}
	}
}

// Chain composes middlewares around a flush action in order.
func Chain[E any](f FlushFunc[E], mws ...FlushMiddleware[E]) FlushFunc[E] {
	if len(mws) == 0 {
		return f
	}
	wrapped := f
	// Apply in reverse so that first middleware wraps last.
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		wrapped = mws[i](wrapped)
	}
	return wrapped
}
