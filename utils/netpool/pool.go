// Package netpool keeps reusable client connections, keyed per target,
// with capacity tickets bounding both total and idle connections. A
// checked-out connection is exclusively owned by its borrower until it
// is released or discarded.
package netpool

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/netforge/fetch/utils/nettools"
)

// Conn is a checked-out pooled connection. Exactly one of Release or
// Discard must be called when the borrower is finished: Release checks
// the connection back in for reuse, Discard closes the transport.
type Conn interface {
	io.ReadWriteCloser
	Release()
	Discard()
	Raw() net.Conn
}

type checkout struct {
	p *Pool
	*conn
}

func (r checkout) Release() { r.p.release(r.conn) }

func (r checkout) Discard() { r.p.discard(r.conn) }

// Close is Discard: a connection closed directly is never reusable.
func (r checkout) Close() error {
	r.p.discard(r.conn)
	return nil
}

func (r checkout) Raw() net.Conn { return r.conn.conn }

type Pool struct {
	mu                     sync.Mutex
	connTicket, idleTicket chan struct{}
	idle                   []*conn

	maxIdleAge time.Duration
	logger     *zap.Logger
}

func NewPool(maxIdle, maxConn uint) *Pool {
	return &Pool{
		connTicket: make(chan struct{}, maxConn),
		idleTicket: make(chan struct{}, maxIdle),
		logger:     zap.NewNop(),
	}
}

// Connect hands out an idle healthy connection for reuse, or dials a new
// one. It blocks while the pool is at capacity until a slot frees up or
// ctx is done.
func (p *Pool) Connect(ctx context.Context, dial func(ctx context.Context) (net.Conn, error)) (Conn, error) {
	select {
	case p.connTicket <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	for {
		select {
		case <-p.idleTicket:
			p.mu.Lock()
			if len(p.idle) == 0 {
				p.mu.Unlock()
				continue
			}
			c := p.idle[0]
			p.idle = p.idle[1:]
			p.mu.Unlock()
			if !p.reusable(c) {
				c.Close()
				continue
			}
			c.checkedIn.Store(false)
			return checkout{p, c}, nil
		default:
			nc, err := dial(ctx)
			if err != nil {
				<-p.connTicket
				return nil, err
			}
			return checkout{p, &conn{conn: nc, logger: p.logger}}, nil
		}
	}
}

func (p *Pool) reusable(c *conn) bool {
	switch {
	case !c.available():
		return false
	case p.maxIdleAge != 0 && time.Since(c.lastIdle) > p.maxIdleAge:
		p.logger.Debug("netpool: dropping idle connection past max age")
		return false
	case nettools.PeerClosed(c.conn):
		p.logger.Debug("netpool: peer closed idle connection")
		return false
	}
	return true
}

func (p *Pool) release(c *conn) {
	if !c.checkedIn.CompareAndSwap(false, true) {
		return
	}
	<-p.connTicket
	if !c.available() {
		return
	}
	c.lastIdle = time.Now()
	// ticket send and slice append must be one critical section: a ticket
	// visible without its connection appended lets a concurrent checkout
	// pop an empty slice
	p.mu.Lock()
	select {
	case p.idleTicket <- struct{}{}:
		p.idle = append(p.idle, c)
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		c.Close()
	}
}

func (p *Pool) discard(c *conn) {
	if !c.checkedIn.CompareAndSwap(false, true) {
		return
	}
	<-p.connTicket
	c.Close()
}
