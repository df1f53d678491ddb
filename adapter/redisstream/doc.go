// Package redisstream provides a Redis Streams transport for xdelay.
//
// Delayed entries flushed through it are appended to a stream with XADD;
// consumers read them with XREADGROUP like any other stream producer's
// output.
//
// Transport name: "redis-streams"
//
// Config keys:
// - addr: "host:port" (default "127.0.0.1:6379")
// - username, password, db
// - tls, tls_server_name
// - max_len_approx: approximate MAXLEN trimming per stream (default 0 = off)
//
// Example:
//
//	tr, err := redisstream.NewTransport(redisstream.Config{Addr: "localhost:6379"})
//	d, err := xdelay.New(pub, func(b *xdelay.Builder[OrderPlaced]) {
//	    b.WithFlusher(xdelay.TransportFlusher[OrderPlaced](tr, "orders"))
//	})
package redisstream
