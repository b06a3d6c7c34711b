package http

import (
	"context"
	"io"
)

// Dialer produces the underlying stream an exchange runs on. Implementations
// must not hold per-request state; connection reuse belongs to the pool
// behind the Dialer, so swapping one out of a Client is always safe.
type Dialer interface {
	Dial(ctx context.Context, r *PreparedRequest) (io.ReadWriteCloser, error)
	Unwrap() Dialer
}

type Request struct {
	Method string
	URL    string
	Body   interface{}
	Header *Header
}

type Response struct {
	Proto      string
	Status     string
	StatusCode int
	Header     *Header

	ContentLength int64
	Body          io.ReadCloser

	// Times is the timing record of the attempt that produced this
	// response. Earlier attempts of the same logical request overwrote it.
	Times TimeGroup
}
