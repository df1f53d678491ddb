package xdelay

import (
	"context"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

type scopeKey struct{}

// flushScope carries the dispatcher's collaborators into flush actions.
type flushScope struct {
	logger *xlog.Logger
	clock  xclock.Clock
}

func withFlushScope(ctx context.Context, l *xlog.Logger, c xclock.Clock) context.Context {
	return context.WithValue(ctx, scopeKey{}, &flushScope{logger: l, clock: c})
}

func scopeFrom(ctx context.Context) *flushScope {
	s, _ := ctx.Value(scopeKey{}).(*flushScope)
	return s
}

// LoggerFromContext returns the dispatcher logger inside a flush action.
func LoggerFromContext(ctx context.Context) (*xlog.Logger, bool) {
	if s := scopeFrom(ctx); s != nil && s.logger != nil {
		return s.logger, true
	}
	return nil, false
}

// ClockFromContext returns the dispatcher clock inside a flush action.
func ClockFromContext(ctx context.Context) (xclock.Clock, bool) {
	if s := scopeFrom(ctx); s != nil && s.clock != nil {
		return s.clock, true
	}
	return nil, false
}
