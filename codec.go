package xdelay

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// JSONCodec encodes events with encoding/json. It is the flusher default.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (JSONCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }
func (JSONCodec) Name() string                    { return "json" }

// RawCodec passes pre-encoded events through untouched. It accepts []byte,
// string and json.RawMessage; anything else is an encode error.
type RawCodec struct{}

func (RawCodec) Marshal(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, fmt.Errorf("raw codec: unsupported type %T", v)
	}
}

func (RawCodec) Unmarshal(data []byte, v any) error {
	switch p := v.(type) {
	case *[]byte:
		*p = append((*p)[:0], data...)
	case *json.RawMessage:
		*p = append((*p)[:0], data...)
	case *string:
		*p = string(data)
	default:
		return fmt.Errorf("raw codec: unsupported target %T", v)
	}
	return nil
}

func (RawCodec) Name() string { return "raw" }

// CodecFactory constructs a Codec for the registry.
type CodecFactory func() Codec

var (
	codecsMu sync.RWMutex
	codecs   = map[string]CodecFactory{
		JSONCodec{}.Name(): func() Codec { return JSONCodec{} },
		RawCodec{}.Name():  func() Codec { return RawCodec{} },
	}
)

// RegisterCodec makes a codec available to NewCodec under name.
func RegisterCodec(name string, factory CodecFactory) error {
	if name == "" {
		return errors.New("codec name must not be empty")
	}
	if factory == nil {
		return errors.New("codec factory must not be nil")
	}
	codecsMu.Lock()
	codecs[name] = factory
	codecsMu.Unlock()
	return nil
}

// NewCodec returns the codec registered under name.
func NewCodec(name string) (Codec, error) {
	codecsMu.RLock()
	f, ok := codecs[name]
	codecsMu.RUnlock()
	if !ok {
		return nil, ErrUnknownCodec{name: name}
	}
	return f(), nil
}

// Decode unmarshals the payload of a flushed message back into an event.
func Decode[T any](c Codec, msg *Message) (T, error) {
	var v T
	if msg == nil {
		return v, errors.New("xdelay: decode nil message")
	}
	err := c.Unmarshal(msg.Payload, &v)
	return v, err
}
