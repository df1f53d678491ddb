package redisstream

import (
	"fmt"
	"time"
)

// Config for the Redis Streams transport. The transport only appends;
// consumer groups belong to whoever reads the streams.
type Config struct {
	Addr          string
	Username      string
	Password      string
	DB            int
	TLS           bool
	TLSServerName string

	// KeyPrefix is prepended to every topic to form the stream key.
	KeyPrefix string
	// MaxLenApprox caps each stream with XADD MAXLEN ~ (0 = unbounded).
	MaxLenApprox int64
	// PingTimeout bounds the connectivity check in NewTransport.
	PingTimeout time.Duration
}

// Defaults returns a Config pointing at a local Redis.
func Defaults() Config {
	return Config{
		Addr:        "127.0.0.1:6379",
		PingTimeout: 2 * time.Second,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("redisstream: addr required")
	case c.DB < 0:
		return fmt.Errorf("redisstream: db must be >= 0, got %d", c.DB)
	case c.MaxLenApprox < 0:
		return fmt.Errorf("redisstream: max_len_approx must be >= 0, got %d", c.MaxLenApprox)
	case c.PingTimeout < 0:
		return fmt.Errorf("redisstream: ping_timeout must be >= 0, got %v", c.PingTimeout)
	}
	return nil
}

func (c Config) streamKey(topic string) string { return c.KeyPrefix + topic }

func (c Config) toMap() map[string]any {
	return map[string]any{
		"addr":            c.Addr,
		"username":        c.Username,
		"password":        c.Password,
		"db":              c.DB,
		"tls":             c.TLS,
		"tls_server_name": c.TLSServerName,
		"key_prefix":      c.KeyPrefix,
		"max_len_approx":  c.MaxLenApprox,
		"ping_timeout":    c.PingTimeout,
	}
}

// ConfigFromMap reads a transport-registry config blob over Defaults.
// Durations may be given as time.Duration or a string such as "500ms".
func ConfigFromMap(m map[string]any) Config {
	c := Defaults()

	str := func(k string, dst *string) {
		if v, ok := m[k].(string); ok {
			*dst = v
		}
	}
	if v, ok := m["addr"].(string); ok && v != "" {
		c.Addr = v
	}
	str("username", &c.Username)
	str("password", &c.Password)
	str("tls_server_name", &c.TLSServerName)
	str("key_prefix", &c.KeyPrefix)

	if v, ok := m["db"].(int); ok {
		c.DB = v
	}
	if v, ok := m["tls"].(bool); ok {
		c.TLS = v
	}
	switch v := m["max_len_approx"].(type) {
	case int64:
		c.MaxLenApprox = v
	case int:
		c.MaxLenApprox = int64(v)
	}
	switch v := m["ping_timeout"].(type) {
	case time.Duration:
		c.PingTimeout = v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			c.PingTimeout = d
		}
	}

	return c
}
