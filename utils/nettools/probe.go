// Package nettools provides best-effort, non-blocking liveness checks
// for idle sockets about to be handed back out of a connection pool.
package nettools

import (
	"net"
	"syscall"
)

var prober func(fd int) bool

// PeerClosed reports whether the peer already closed or corrupted an
// idle connection: the socket is readable even though no response is
// outstanding, meaning either an EOF or stray bytes are pending. On
// platforms without a prober it reports false and the pool finds out
// the usual way, on first use.
func PeerClosed(c net.Conn) bool {
	if prober == nil {
		return false
	}
	rc := rawConn(c)
	if rc == nil {
		return false
	}
	closed := false
	if err := rc.Control(func(fd uintptr) {
		closed = prober(int(fd))
	}); err != nil {
		return false
	}
	return closed
}

func rawConn(raw net.Conn) syscall.RawConn {
	if t, ok := raw.(interface{ NetConn() net.Conn }); ok {
		// is *tls.Conn or a wrapper exposing the transport
		raw = t.NetConn()
	}
	if c, ok := raw.(syscall.Conn); ok {
		if rc, err := c.SyscallConn(); err == nil {
			return rc
		}
	}
	return nil
}
