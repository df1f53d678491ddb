package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/trickstertwo/xdelay"
)

func newTestTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	return provider, recorder
}

func TestMiddleware_SpanPerDelivery(t *testing.T) {
	provider, recorder := newTestTracerProvider(t)

	boom := errors.New("boom")
	var sawSpan bool
	pub := xdelay.PublisherFunc[int](func(ctx context.Context, _ string, e int) (int, error) {
		sawSpan = sawSpan || trace.SpanFromContext(ctx).SpanContext().IsValid()
		if e == 2 {
			return e, boom
		}
		return e, nil
	})

	d, err := xdelay.New(pub, func(b *xdelay.Builder[int]) {
		b.WithMiddleware(Middleware[int](WithTracerProvider(provider)))
		b.WithFailureHandler(func(context.Context, error, xdelay.Entry[int]) error { return nil })
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, _ = d.Publish(ctx, "one", 1)
	_, _ = d.Publish(ctx, "two", 2)
	require.NoError(t, d.Flush(ctx))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.True(t, sawSpan)

	assert.Equal(t, spanName, spans[0].Name())
	assert.Equal(t, trace.SpanKindProducer, spans[0].SpanKind())
	assert.Contains(t, spans[0].Attributes(), AttrEventName.String("one"))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}
