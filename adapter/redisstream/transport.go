package redisstream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trickstertwo/xdelay"
)

// Stream entry fields.
const (
	fieldID         = "id"
	fieldName       = "event"
	fieldPayload    = "payload"   // raw bytes, no base64
	fieldProducedAt = "flushedAt" // unix ns
	fieldMetaPrefix = "meta:"
)

// Transport appends flushed messages to Redis Streams.
type Transport struct {
	cfg    Config
	client *redis.Client

	closed atomic.Bool

	metrics *transportMetrics
}

// transportMetrics tracks performance telemetry
type transportMetrics struct {
	published     atomic.Uint64
	publishErrors atomic.Uint64
}

// Stats is a snapshot of transport counters.
type Stats struct {
	Published     uint64
	PublishErrors uint64
}

var _ xdelay.Transport = (*Transport)(nil)

// NewTransport validates cfg, connects and pings Redis.
func NewTransport(cfg Config) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := &redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
	}

	if cfg.TLS {
		opts.TLSConfig = &tls.Config{
			MinVersion:    tls.VersionTLS12,
			ServerName:    cfg.TLSServerName,
			Renegotiation: tls.RenegotiateNever,
		}
	}

	client := redis.NewClient(opts)
	if err := ping(client, cfg.PingTimeout); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Transport{
		cfg:     cfg,
		client:  client,
		metrics: &transportMetrics{},
	}, nil
}

// Publish sends messages to a stream using Redis XADD (pipelined for batches).
func (t *Transport) Publish(ctx context.Context, topic string, msgs ...*xdelay.Message) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if len(msgs) == 0 {
		return nil
	}

	pipe := t.client.Pipeline()

	for _, m := range msgs {
		if m == nil {
			continue
		}
		vals := make(map[string]any, 4+len(m.Metadata))

		if m.ID != "" {
			vals[fieldID] = m.ID
		}
		vals[fieldName] = m.Name
		vals[fieldPayload] = m.Payload
		vals[fieldProducedAt] = m.ProducedAt.UnixNano()

		for k, v := range m.Metadata {
			vals[fieldMetaPrefix+k] = v
		}

		args := &redis.XAddArgs{
			Stream: t.cfg.streamKey(topic),
			ID:     "*",
			Values: vals,
		}

		if t.cfg.MaxLenApprox > 0 {
			args.MaxLen = t.cfg.MaxLenApprox
			args.Approx = true
		}

		pipe.XAdd(ctx, args)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		t.metrics.publishErrors.Add(uint64(len(msgs)))
		return err
	}

	t.metrics.published.Add(uint64(len(msgs)))
	return nil
}

// Range reads up to count messages from the start of topic's stream. ID is the
// message id set by the flusher, not the stream entry id.
func (t *Transport) Range(ctx context.Context, topic string, count int64) ([]*xdelay.Message, error) {
	entries, err := t.client.XRangeN(ctx, t.cfg.streamKey(topic), "-", "+", count).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*xdelay.Message, 0, len(entries))
	for _, e := range entries {
		out = append(out, decodeMessage(e.ID, e.Values))
	}
	return out, nil
}

// Stats returns current transport metrics.
func (t *Transport) Stats() Stats {
	return Stats{
		Published:     t.metrics.published.Load(),
		PublishErrors: t.metrics.publishErrors.Load(),
	}
}

// Close gracefully shuts down the transport.
func (t *Transport) Close(_ context.Context) error {
	if t.closed.Swap(true) {
		return nil
	}

	return t.client.Close()
}

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("redisstream: transport is closed")

func ping(c *redis.Client, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res, err := c.Ping(ctx).Result()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("redis ping timeout: %w", err)
		}
		return err
	}

	if strings.ToUpper(res) != "PONG" {
		return fmt.Errorf("unexpected redis ping result: %s", res)
	}

	return nil
}

// decodeMessage rebuilds a Message from stream entry values. The flusher's
// id field wins over the stream entry id.
func decodeMessage(entryID string, vals map[string]any) *xdelay.Message {
	msg := &xdelay.Message{ID: entryID}

	if v, ok := vals[fieldID]; ok {
		msg.ID = asString(v)
	}
	if v, ok := vals[fieldName]; ok {
		msg.Name = asString(v)
	}
	if v, ok := vals[fieldPayload]; ok {
		switch p := v.(type) {
		case []byte:
			msg.Payload = p
		case string:
			msg.Payload = []byte(p)
		}
	}
	if pa := vals[fieldProducedAt]; pa != nil {
		if ns, ok := toInt64(pa); ok && ns > 0 {
			msg.ProducedAt = time.Unix(0, ns)
		}
	}

	for k, v := range vals {
		if strings.HasPrefix(k, fieldMetaPrefix) {
			if msg.Metadata == nil {
				msg.Metadata = make(map[string]string, 4)
			}
			msg.Metadata[strings.TrimPrefix(k, fieldMetaPrefix)] = asString(v)
		}
	}

	return msg
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	case []byte:
		return toInt64(string(n))
	}
	return 0, false
}
