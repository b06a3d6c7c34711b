package dialer

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/url"

	"go.uber.org/zap"

	"github.com/netforge/fetch/internal/http"
	"github.com/netforge/fetch/utils/netpool"
)

const (
	maxConnsPerHost = 100
	maxIdlePerHost  = 80
)

var pool = netpool.NewGroup(maxConnsPerHost, maxIdlePerHost)

var schemes = map[string]string{
	"http": "80", "https": "443",
}

var zeroDialer net.Dialer

// stream is what Dial hands out: a pooled connection tagged with the
// metadata the transport needs to pick request forms and trust level.
type stream struct {
	netpool.Conn
	proxied, tls bool
}

func (s stream) Proxied() bool { return s.proxied }
func (s stream) TLS() bool     { return s.tls }

func (d *CoreDialer) pool() *netpool.Group {
	if d.ConnPool != nil {
		return d.ConnPool
	}
	return pool
}

func (d *CoreDialer) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}

func (d *CoreDialer) Dial(ctx context.Context, r *http.PreparedRequest) (io.ReadWriteCloser, error) {
	addr, port := r.U.Host, schemes[r.U.Scheme]
	if a, p, err := net.SplitHostPort(addr); err == nil {
		addr, port = a, p
	}
	if port == "" {
		return nil, errors.New("unsupported scheme: " + r.U.Scheme)
	}
	hp := net.JoinHostPort(addr, port)

	proxy := ""
	if d.GetProxy != nil {
		p, err := d.GetProxy(ctx, r.Request)
		if err != nil {
			return nil, err
		}
		proxy = p
	}
	var proxyU *url.URL
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, err
		}
		proxyU = u
	}

	// connections are only interchangeable within the same scheme,
	// target and proxy choice
	key := r.U.Scheme + "|" + hp + "|" + proxy
	c, err := d.pool().Connect(ctx, key, func(ctx context.Context) (net.Conn, error) {
		if proxyU != nil {
			return d.dialProxied(ctx, r, hp, proxyU)
		}
		conn, err := zeroDialer.DialContext(ctx, "tcp", hp)
		if err != nil {
			return nil, err
		}
		if r.U.Scheme == "https" {
			return d.handshake(ctx, conn, r.U.Hostname())
		}
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return stream{
		Conn:    c,
		proxied: proxyU != nil && r.U.Scheme == "http",
		tls:     r.U.Scheme == "https",
	}, nil
}

func (d *CoreDialer) handshake(ctx context.Context, conn net.Conn, serverName string) (net.Conn, error) {
	config := d.TLSConfig.Clone()
	if config == nil {
		config = &tls.Config{}
	}
	if config.ServerName == "" {
		config.ServerName = serverName
	}
	c := tls.Client(conn, config)
	if err := c.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}
