package xdelay

import (
	"errors"
	"fmt"
)

var (
	ErrNoPublisher = errors.New("xdelay: publisher must not be nil")
	ErrNotRegistry = errors.New("xdelay: publisher does not implement Registry")
	ErrFlushPanic  = errors.New("xdelay: flush action panicked")
)

// ErrUnknownTransport is returned by NewTransport for an unregistered name.
type ErrUnknownTransport struct{ name string }

func (e ErrUnknownTransport) Error() string { return fmt.Sprintf("unknown transport: %s", e.name) }

// ErrUnknownCodec is returned by NewCodec for an unregistered name.
type ErrUnknownCodec struct{ name string }

func (e ErrUnknownCodec) Error() string { return fmt.Sprintf("unknown codec: %s", e.name) }
