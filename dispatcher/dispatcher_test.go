package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xdelay"
)

type userSignedUp struct {
	Email   string
	stopped bool
	trail   *[]string
}

func (*userSignedUp) EventName() string { return "user.signed_up" }

func (e *userSignedUp) PropagationStopped() bool { return e.stopped }

func tracing(tag string) xdelay.Listener[*userSignedUp] {
	return ListenerFunc(func(_ context.Context, _ string, e *userSignedUp) error {
		*e.trail = append(*e.trail, tag)
		return nil
	})
}

func TestPublish_PriorityThenRegistrationOrder(t *testing.T) {
	d := New[*userSignedUp]()
	d.AddListener("user.signed_up", tracing("low"), -10)
	d.AddListener("user.signed_up", tracing("first"), 0)
	d.AddListener("user.signed_up", tracing("high"), 10)
	d.AddListener("user.signed_up", tracing("second"), 0)

	var trail []string
	e := &userSignedUp{trail: &trail}
	out, err := d.Publish(context.Background(), "user.signed_up", e)
	require.NoError(t, err)

	assert.Same(t, e, out)
	assert.Equal(t, []string{"high", "first", "second", "low"}, trail)
}

func TestPublish_StopsOnListenerError(t *testing.T) {
	boom := errors.New("boom")
	d := New[*userSignedUp]()
	d.AddListener("user.signed_up", tracing("a"), 2)
	d.AddListener("user.signed_up", ListenerFunc(func(context.Context, string, *userSignedUp) error { return boom }), 1)
	d.AddListener("user.signed_up", tracing("c"), 0)

	var trail []string
	_, err := d.Publish(context.Background(), "user.signed_up", &userSignedUp{trail: &trail})
	assert.Same(t, boom, err)
	assert.Equal(t, []string{"a"}, trail)
}

func TestPublish_StoppablePropagation(t *testing.T) {
	d := New[*userSignedUp]()
	d.AddListener("user.signed_up", ListenerFunc(func(_ context.Context, _ string, e *userSignedUp) error {
		*e.trail = append(*e.trail, "stopper")
		e.stopped = true
		return nil
	}), 1)
	d.AddListener("user.signed_up", tracing("never"), 0)

	var trail []string
	_, err := d.Dispatch(context.Background(), &userSignedUp{trail: &trail})
	require.NoError(t, err)
	assert.Equal(t, []string{"stopper"}, trail)
}

func TestPublish_NoListeners(t *testing.T) {
	d := New[int]()
	out, err := d.Publish(context.Background(), "nothing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, out)
}

func TestRegistry_ListenersAndPriority(t *testing.T) {
	d := New[int]()
	a := ListenerFunc(func(context.Context, string, int) error { return nil })
	b := ListenerFunc(func(context.Context, string, int) error { return nil })
	c := ListenerFunc(func(context.Context, string, int) error { return nil })

	assert.False(t, d.HasListeners(""))

	d.AddListener("b.event", b, 0)
	d.AddListener("a.event", a, 5)
	d.AddListener("a.event", c, 7)

	assert.True(t, d.HasListeners(""))
	assert.True(t, d.HasListeners("a.event"))
	assert.False(t, d.HasListeners("z.event"))

	assert.Equal(t, []xdelay.Listener[int]{c, a}, d.Listeners("a.event"))
	assert.Equal(t, []xdelay.Listener[int]{c, a, b}, d.Listeners(""))

	p, ok := d.ListenerPriority("a.event", a)
	assert.True(t, ok)
	assert.Equal(t, 5, p)
	_, ok = d.ListenerPriority("b.event", a)
	assert.False(t, ok)

	d.RemoveListener("a.event", a)
	d.RemoveListener("a.event", c)
	assert.False(t, d.HasListeners("a.event"))
	assert.Nil(t, d.Listeners("a.event"))
	assert.True(t, d.HasListeners(""))
}

func TestRegistry_Subscribers(t *testing.T) {
	d := New[int]()
	own := ListenerFunc(func(context.Context, string, int) error { return nil })
	onA := ListenerFunc(func(context.Context, string, int) error { return nil })
	onB := ListenerFunc(func(context.Context, string, int) error { return nil })

	d.AddListener("a", own, 0)
	sub := &StaticSubscriber[int]{Subscriptions: []xdelay.Subscription[int]{
		{Name: "a", Listener: onA, Priority: 3},
		{Name: "b", Listener: onB},
	}}

	d.AddSubscriber(sub)
	assert.Equal(t, []xdelay.Listener[int]{onA, own}, d.Listeners("a"))
	assert.True(t, d.HasListeners("b"))

	d.RemoveSubscriber(sub)
	assert.Equal(t, []xdelay.Listener[int]{own}, d.Listeners("a"))
	assert.False(t, d.HasListeners("b"))
}

func TestDelayed_RegistryDispatcherForwardsAndDelays(t *testing.T) {
	inner := New[*userSignedUp]()
	rd, err := xdelay.NewBuilder[*userSignedUp](inner).BuildRegistry()
	require.NoError(t, err)

	l := tracing("welcome-mail")
	rd.AddListener("user.signed_up", l, 4)

	assert.True(t, inner.HasListeners("user.signed_up"))
	assert.True(t, rd.HasListeners(""))
	assert.Equal(t, []xdelay.Listener[*userSignedUp]{l}, rd.Listeners("user.signed_up"))
	p, ok := rd.ListenerPriority("user.signed_up", l)
	assert.True(t, ok)
	assert.Equal(t, 4, p)

	var trail []string
	_, err = rd.Dispatch(context.Background(), &userSignedUp{trail: &trail})
	require.NoError(t, err)
	assert.Empty(t, trail, "listeners must not run before flush")

	require.NoError(t, rd.Flush(context.Background()))
	assert.Equal(t, []string{"welcome-mail"}, trail)

	sub := &StaticSubscriber[*userSignedUp]{Subscriptions: []xdelay.Subscription[*userSignedUp]{
		{Name: "user.deleted", Listener: tracing("audit")},
	}}
	rd.AddSubscriber(sub)
	assert.True(t, inner.HasListeners("user.deleted"))
	rd.RemoveSubscriber(sub)
	assert.False(t, inner.HasListeners("user.deleted"))

	rd.RemoveListener("user.signed_up", l)
	assert.False(t, inner.HasListeners(""))
}
