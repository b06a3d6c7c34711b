// Package dialer establishes the streams exchanges run on: pooled TCP
// connections, TLS sessions and proxy tunnels. It is the Connector
// collaborator of the client; everything after the stream exists is the
// transport's business.
package dialer

import (
	"context"
	"crypto/tls"

	"go.uber.org/zap"

	"github.com/netforge/fetch/internal/http"
	"github.com/netforge/fetch/utils/netpool"
)

// Dialers are responsible for creating underlying streams that http requests
// could be written to and responses could be read from.
//
// A Dialer MUST NOT hold active connection states, which means a Dialer must
// be able to be swapped out from a Client without pain. It SHOULD hold the
// connection related configs like the proxy callback or *[crypto/tls.Config].
type Dialer = http.Dialer

// CoreDialer is the default implementation of the [Dialer] interface. It
// would be used by a zero value Client.
type CoreDialer struct {
	TLSConfig *tls.Config // the config to use for origin servers
	// ProxyTLSConfig applies to the TLS session with the proxy itself;
	// TLSConfig is used when nil.
	ProxyTLSConfig *tls.Config

	// GetProxy returns the proxy URL to use for a request, or "" for a
	// direct connection.
	GetProxy func(ctx context.Context, r *http.Request) (string, error)

	ConnPool *netpool.Group
	Logger   *zap.Logger
}

func (d *CoreDialer) Clone() *CoreDialer {
	return &CoreDialer{
		TLSConfig:      d.TLSConfig.Clone(),
		ProxyTLSConfig: d.ProxyTLSConfig.Clone(),
		GetProxy:       d.GetProxy,
		ConnPool:       netpool.NewGroup(maxConnsPerHost, maxIdlePerHost),
		Logger:         d.Logger,
	}
}

func (d *CoreDialer) Unwrap() Dialer { return nil }
