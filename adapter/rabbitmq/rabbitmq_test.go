package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xdelay"
)

type published struct {
	exchange, key string
	msg           amqp091.Publishing
}

type fakeChannel struct {
	sent   []published
	failOn int
	closed bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if c.failOn > 0 && len(c.sent)+1 == c.failOn {
		return errors.New("channel closed")
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublish_SetsRoutingAndProperties(t *testing.T) {
	ch := &fakeChannel{}
	tr := &Transport{cfg: Defaults(), ch: ch}

	at := time.Unix(1_700_000_000, 0)
	err := tr.Publish(context.Background(), "orders.placed", &xdelay.Message{
		ID:         "m-1",
		Name:       "order.placed",
		Payload:    []byte(`{"order_id":"o-1"}`),
		Metadata:   map[string]string{"tenant": "acme"},
		ProducedAt: at,
	})
	require.NoError(t, err)
	require.Len(t, ch.sent, 1)

	p := ch.sent[0]
	assert.Equal(t, "xdelay", p.exchange)
	assert.Equal(t, "orders.placed", p.key)
	assert.Equal(t, "m-1", p.msg.MessageId)
	assert.Equal(t, "order.placed", p.msg.Type)
	assert.Equal(t, "application/json", p.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, p.msg.DeliveryMode)
	assert.Equal(t, at, p.msg.Timestamp)
	assert.Equal(t, amqp091.Table{"tenant": "acme"}, p.msg.Headers)
}

func TestPublish_StopsAtFirstFailure(t *testing.T) {
	ch := &fakeChannel{failOn: 2}
	tr := &Transport{cfg: Defaults(), ch: ch}

	err := tr.Publish(context.Background(), "orders",
		&xdelay.Message{ID: "1"}, &xdelay.Message{ID: "2"}, &xdelay.Message{ID: "3"})
	require.Error(t, err)
	assert.Len(t, ch.sent, 1)
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	tr := &Transport{cfg: Defaults(), ch: ch}

	require.NoError(t, tr.Close(context.Background()))
	assert.True(t, ch.closed)
	assert.ErrorIs(t, tr.Publish(context.Background(), "orders", &xdelay.Message{}), ErrClosed)
}

func TestConfig(t *testing.T) {
	assert.NoError(t, Defaults().Validate())
	assert.Error(t, Config{Exchange: "x"}.Validate())
	assert.Error(t, Config{URL: "amqp://h"}.Validate())

	cfg := ConfigFromMap(map[string]any{"exchange": "events"})
	assert.Equal(t, "events", cfg.Exchange)
	assert.Equal(t, Defaults().URL, cfg.URL)
}

func TestNewTransport_InvalidConfig(t *testing.T) {
	_, err := NewTransport(Config{})
	assert.Error(t, err)
}
