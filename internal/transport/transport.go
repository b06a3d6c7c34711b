// Package transport drives the HTTP/1 codec against a connection: it
// pumps the encoded head and request body through a fixed-size buffer,
// decodes the response head incrementally, and wires the lazy response
// body to the connection's reuse rules.
package transport

import (
	"context"

	"github.com/netforge/fetch/internal/conn"
	"github.com/netforge/fetch/internal/http"
)

type RoundTripper interface {
	RoundTrip(ctx context.Context, cn *conn.Conn, r *http.PreparedRequest) (*http.Response, error)
}
