// Package conn wraps one raw stream with the connection-level state the
// transfer engine needs: proxy/TLS metadata, a one-way shutdown flag and
// the rules for when the transport may be physically released.
package conn

import (
	"io"
	"sync/atomic"
)

type releaser interface{ Release() }
type discarder interface{ Discard() }

// Conn owns exactly one raw stream for the duration of an exchange.
//
// Its lifecycle is Open → Shutdown → Closed. Shutdown marks the
// connection ineligible for reuse but an in-flight body read may still
// drain bytes; the transport is physically released only via Done, once
// the body is finished or dropped, or via Abort on a hard failure.
type Conn struct {
	stream io.ReadWriteCloser

	proxied, tls bool
	// streamClosable reports it is safe to close the transport as soon
	// as the current body is drained. True for HTTP/1 semantics where
	// one exchange owns the whole socket.
	streamClosable bool

	shutdown atomic.Bool
	done     atomic.Bool
}

// New wraps a stream. Proxy and TLS metadata are probed from the stream
// itself when it exposes them.
func New(stream io.ReadWriteCloser) *Conn {
	c := &Conn{stream: stream, streamClosable: true}
	if p, ok := stream.(interface{ Proxied() bool }); ok {
		c.proxied = p.Proxied()
	}
	if t, ok := stream.(interface{ TLS() bool }); ok {
		c.tls = t.TLS()
	}
	return c
}

func (c *Conn) Read(p []byte) (int, error)  { return c.stream.Read(p) }
func (c *Conn) Write(p []byte) (int, error) { return c.stream.Write(p) }

// Proxied reports whether the stream goes through a plaintext proxy, in
// which case request targets must be written in absolute form.
func (c *Conn) Proxied() bool { return c.proxied }

func (c *Conn) TLS() bool { return c.tls }

func (c *Conn) StreamClosable() bool { return c.streamClosable }

// Shutdown marks the connection as no longer reusable. It does not close
// the transport: a body that is still being read may finish draining.
func (c *Conn) Shutdown() { c.shutdown.Store(true) }

func (c *Conn) IsShutdown() bool { return c.shutdown.Load() }

// Done ends this connection's participation in the exchange. A healthy
// connection is checked back in for reuse; a shutdown one has its
// transport closed. Safe to call more than once.
func (c *Conn) Done() {
	if !c.done.CompareAndSwap(false, true) {
		return
	}
	if c.shutdown.Load() {
		c.close()
		return
	}
	if r, ok := c.stream.(releaser); ok {
		r.Release()
		return
	}
	c.stream.Close()
}

// Abort shuts the connection down and closes the transport immediately,
// unblocking any in-flight read or write. Used when a timeout abandons
// the exchange: the abandoned operation cannot be relied on to clean up.
func (c *Conn) Abort() {
	c.shutdown.Store(true)
	if c.done.CompareAndSwap(false, true) {
		c.close()
	}
}

func (c *Conn) close() {
	if d, ok := c.stream.(discarder); ok {
		d.Discard()
		return
	}
	c.stream.Close()
}
