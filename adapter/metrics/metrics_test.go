package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xdelay"
)

func TestObserver_CountsLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewObserver("test", reg)
	require.NoError(t, err)

	boom := errors.New("boom")
	pub := xdelay.PublisherFunc[string](func(_ context.Context, _ string, e string) (string, error) {
		if e == "bad" {
			return e, boom
		}
		return e, nil
	})
	d, err := xdelay.New(pub, func(b *xdelay.Builder[string]) {
		b.WithObserver(obs)
		b.WithFailureHandler(func(context.Context, error, xdelay.Entry[string]) error { return nil })
	})
	require.NoError(t, err)

	ctx := context.Background()
	for _, e := range []string{"a", "bad", "c"} {
		_, err := d.Publish(ctx, "evt", e)
		require.NoError(t, err)
	}
	assert.Equal(t, float64(3), testutil.ToFloat64(obs.queued))

	require.NoError(t, d.Flush(ctx))

	assert.Equal(t, float64(3), testutil.ToFloat64(obs.events.WithLabelValues(string(xdelay.EventDelayed))))
	assert.Equal(t, float64(2), testutil.ToFloat64(obs.events.WithLabelValues(string(xdelay.EventDelivered))))
	assert.Equal(t, float64(1), testutil.ToFloat64(obs.events.WithLabelValues(string(xdelay.EventDeliveryFailed))))
	assert.Equal(t, float64(1), testutil.ToFloat64(obs.events.WithLabelValues(string(xdelay.EventFlushDone))))
	assert.Equal(t, float64(0), testutil.ToFloat64(obs.queued))
	assert.Equal(t, 1, testutil.CollectAndCount(obs.flushTime))
}

func TestNewObserver_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewObserver("dup", reg)
	require.NoError(t, err)

	_, err = NewObserver("dup", reg)
	assert.Error(t, err)
}
