// Package kafka provides a Kafka transport for xdelay built on
// segmentio/kafka-go. Each flushed message becomes one Kafka record keyed
// by message id, with the event name and metadata carried as headers.
//
// Transport name: "kafka"
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/trickstertwo/xdelay"
)

const TransportName = "kafka"

// Header names set on every record.
const (
	HeaderEventName  = "xdelay-event"
	HeaderMetaPrefix = "xdelay-meta-"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("kafka: transport is closed")

func init() {
	if err := xdelay.RegisterTransport(TransportName, func(cfg map[string]any) (xdelay.Transport, error) {
		tr, err := NewTransport(ConfigFromMap(cfg))
		if err != nil {
			return nil, err
		}
		return tr, nil
	}); err != nil {
		panic(fmt.Errorf("xdelay: failed to register transport %q: %w", TransportName, err))
	}
}

// Config controls the Kafka writer.
type Config struct {
	// Brokers is the bootstrap broker list.
	Brokers []string
	// TopicPrefix is prepended to every topic.
	TopicPrefix string
	// BatchTimeout bounds how long the writer waits to fill a batch (default 10ms).
	BatchTimeout time.Duration
	// RequiredAcks is -1 (all replicas, default), 0 or 1.
	RequiredAcks int
}

// Defaults returns a Config for a local single broker.
func Defaults() Config {
	return Config{
		Brokers:      []string{"127.0.0.1:9092"},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: int(kafka.RequireAll),
	}
}

func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("config: brokers required")
	}
	switch c.RequiredAcks {
	case int(kafka.RequireAll), int(kafka.RequireNone), int(kafka.RequireOne):
	default:
		return fmt.Errorf("config: required_acks must be -1, 0 or 1, got %d", c.RequiredAcks)
	}
	return nil
}

// ConfigFromMap converts a generic map to Config with defaults. Brokers may
// be a []string or a comma separated string.
func ConfigFromMap(m map[string]any) Config {
	c := Defaults()

	switch v := m["brokers"].(type) {
	case []string:
		if len(v) > 0 {
			c.Brokers = v
		}
	case string:
		if v != "" {
			c.Brokers = strings.Split(v, ",")
		}
	}
	if v, ok := m["topic_prefix"].(string); ok {
		c.TopicPrefix = v
	}
	if v, ok := m["batch_timeout"].(time.Duration); ok && v > 0 {
		c.BatchTimeout = v
	}
	if v, ok := m["required_acks"].(int); ok {
		c.RequiredAcks = v
	}
	return c
}

// messageWriter is the part of *kafka.Writer the transport uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Transport writes flushed messages to Kafka.
type Transport struct {
	cfg    Config
	writer messageWriter
	closed atomic.Bool
}

var _ xdelay.Transport = (*Transport)(nil)

// NewTransport builds a Kafka writer. Connections are opened lazily on the
// first Publish.
func NewTransport(cfg Config) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
	}
	return &Transport{cfg: cfg, writer: w}, nil
}

// Publish writes msgs to TopicPrefix+topic in one batch.
func (t *Transport) Publish(ctx context.Context, topic string, msgs ...*xdelay.Message) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if len(msgs) == 0 {
		return nil
	}

	records := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		records = append(records, toRecord(t.cfg.TopicPrefix+topic, m))
	}
	return t.writer.WriteMessages(ctx, records...)
}

func (t *Transport) Close(_ context.Context) error {
	if t.closed.Swap(true) {
		return nil
	}
	return t.writer.Close()
}

// toRecord maps a message to a Kafka record. Metadata headers are sorted by
// key so records are deterministic.
func toRecord(topic string, m *xdelay.Message) kafka.Message {
	headers := make([]kafka.Header, 0, 1+len(m.Metadata))
	headers = append(headers, kafka.Header{Key: HeaderEventName, Value: []byte(m.Name)})

	keys := make([]string, 0, len(m.Metadata))
	for k := range m.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		headers = append(headers, kafka.Header{Key: HeaderMetaPrefix + k, Value: []byte(m.Metadata[k])})
	}

	return kafka.Message{
		Topic:   topic,
		Key:     []byte(m.ID),
		Value:   m.Payload,
		Headers: headers,
		Time:    m.ProducedAt,
	}
}
