// Package tracing wraps xdelay flush actions in OpenTelemetry spans.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/trickstertwo/xdelay"
)

const (
	tracerName = "github.com/trickstertwo/xdelay"
	spanName   = "xdelay.flush"

	AttrEventName = attribute.Key("xdelay.event_name")
)

type config struct {
	provider trace.TracerProvider
}

// Option configures Middleware.
type Option func(*config)

// WithTracerProvider uses tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		if tp != nil {
			c.provider = tp
		}
	}
}

// Middleware starts one span per delayed delivery and records its error.
func Middleware[E any](opts ...Option) xdelay.FlushMiddleware[E] {
	cfg := &config{}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	if cfg.provider == nil {
		cfg.provider = otel.GetTracerProvider()
	}
	tracer := cfg.provider.Tracer(tracerName)

	return func(next xdelay.FlushFunc[E]) xdelay.FlushFunc[E] {
		return func(ctx context.Context, entry xdelay.Entry[E]) error {
			ctx, span := tracer.Start(ctx, spanName,
				trace.WithSpanKind(trace.SpanKindProducer),
				trace.WithAttributes(AttrEventName.String(entry.Name)),
			)
			defer span.End()

			err := next(ctx, entry)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return err
		}
	}
}
