package dialer

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"

	"go.uber.org/zap"

	"github.com/netforge/fetch/internal/conn"
	"github.com/netforge/fetch/internal/http"
	"github.com/netforge/fetch/internal/transport"
)

var h1Transport = transport.HTTP1{}

// tunnel keeps the socket alive after the CONNECT exchange finishes: the
// transport releases the connection once the (empty) response body is
// done, and for a tunnel that must be a no-op so the TLS handshake can
// continue on the same stream.
type tunnel struct{ net.Conn }

func (tunnel) Release() {}

// dialProxied connects through an http/https proxy. Plaintext targets
// get the raw proxy connection back and travel in absolute form; TLS
// targets get a CONNECT tunnel followed by the origin handshake.
func (d *CoreDialer) dialProxied(ctx context.Context, r *http.PreparedRequest, target string, proxy *url.URL) (net.Conn, error) {
	if proxy.Scheme != "http" && proxy.Scheme != "https" {
		return nil, errors.New("unsupported proxy scheme: " + proxy.Scheme)
	}
	hp := proxy.Host
	if proxy.Port() == "" {
		hp = net.JoinHostPort(proxy.Hostname(), schemes[proxy.Scheme])
	}
	c, err := zeroDialer.DialContext(ctx, "tcp", hp)
	if err != nil {
		return nil, err
	}
	if proxy.Scheme == "https" {
		config := d.ProxyTLSConfig
		if config == nil {
			config = d.TLSConfig
		}
		config = config.Clone()
		if config == nil {
			config = &tls.Config{}
		}
		if config.ServerName == "" {
			config.ServerName = proxy.Hostname()
		}
		tc := tls.Client(c, config)
		if err := tc.HandshakeContext(ctx); err != nil {
			c.Close()
			return nil, err
		}
		c = tc
	}
	if r.U.Scheme != "https" {
		return c, nil
	}
	d.logger().Debug("establishing tunnel",
		zap.String("proxy", hp), zap.String("target", target))
	if err := connectTunnel(ctx, c, target, proxy); err != nil {
		c.Close()
		return nil, err
	}
	return d.handshake(ctx, c, r.U.Hostname())
}

// connectTunnel issues a CONNECT exchange over c and leaves the socket
// positioned right after the proxy's response head.
func connectTunnel(ctx context.Context, c net.Conn, target string, proxy *url.URL) error {
	req := &http.Request{Method: "CONNECT"}
	pr := &http.PreparedRequest{
		Request:       req,
		U:             &url.URL{Host: target},
		Header:        http.NewHeader(),
		HeaderHost:    target,
		ContentLength: -1,
		GetBody:       func() (io.ReadCloser, error) { return http.NoBody, nil },
	}
	if auth := proxy.User.String(); auth != "" {
		pr.Header.Set("Proxy-Authorization",
			"Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	}
	resp, err := h1Transport.RoundTrip(ctx, conn.New(tunnel{c}), pr)
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		s, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return fmt.Errorf("proxy server refused tunnel: status %d, body %q", resp.StatusCode, s)
	}
	resp.Body.Close()
	return nil
}
