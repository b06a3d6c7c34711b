package netpool

import (
	"io"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type conn struct {
	conn   net.Conn
	broken atomic.Bool
	// checkedIn guards against a double Release/Discard by one borrower
	checkedIn atomic.Bool

	lastIdle time.Time
	logger   *zap.Logger
}

// available reports whether the connection may be handed out again.
func (c *conn) available() bool {
	return !c.broken.Load()
}

func (c *conn) Write(p []byte) (n int, err error) {
	n, err = c.conn.Write(p)
	if err != nil {
		if err != io.EOF {
			c.logger.Debug("netpool: error on write", zap.Error(err))
		}
		c.Close()
	}
	return
}

func (c *conn) Read(p []byte) (n int, err error) {
	n, err = c.conn.Read(p)
	if err != nil {
		if err != io.EOF {
			c.logger.Debug("netpool: error on read", zap.Error(err))
		}
		c.Close()
	}
	return
}

func (c *conn) Close() error {
	err := c.conn.Close()
	c.broken.Store(true)
	return err
}
