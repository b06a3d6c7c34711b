package transport

import (
	"bytes"
	"io"

	"github.com/netforge/fetch/internal/conn"
	"github.com/netforge/fetch/internal/errs"
	"github.com/netforge/fetch/internal/http1"
	"github.com/netforge/fetch/internal/intercept"
	"github.com/netforge/fetch/internal/transport/chunked"
)

// newBody binds a response body to its connection. Bytes the decoder
// captured past the head are served first; further bytes are pulled
// from the connection on demand according to the framing decision. The
// connection is checked back in (or closed, if shut down) exactly when
// the body finishes or is dropped.
func newBody(cn *conn.Conn, length http1.BodyLength, pre []byte, ic intercept.Interceptor) io.ReadCloser {
	b := &bodyReader{cn: cn, mode: length.Kind}
	src := io.MultiReader(bytes.NewReader(pre), &wireReader{cn: cn, ic: ic})
	switch length.Kind {
	case http1.LengthZero:
		b.finish()
	case http1.LengthFixed:
		if length.N == 0 {
			b.finish()
			break
		}
		b.lr = &io.LimitedReader{R: src, N: length.N}
		b.r = b.lr
	case http1.LengthChunked:
		b.r = chunked.NewReader(src)
	case http1.LengthUntilClose:
		b.r = src
	}
	return b
}

type bodyReader struct {
	cn   *conn.Conn
	mode http1.BodyLengthKind

	r    io.Reader
	lr   *io.LimitedReader // fixed framing only
	done bool
	err  error // sticky, returned after done when non-nil
}

func (b *bodyReader) Read(p []byte) (int, error) {
	if b.done {
		if b.err != nil {
			return 0, b.err
		}
		return 0, io.EOF
	}
	n, err := b.r.Read(p)
	switch {
	case err == nil:
		return n, nil
	case err == io.EOF:
		return n, b.eof()
	default:
		return n, b.fail(err)
	}
}

// eof handles the framing reader reporting end-of-body.
func (b *bodyReader) eof() error {
	switch b.mode {
	case http1.LengthFixed:
		if b.lr.N > 0 {
			// peer closed before delivering the promised bytes
			b.cn.Shutdown()
			b.err = errs.Wrap(errs.KindBodyTransfer, errs.PhaseReceive, io.ErrUnexpectedEOF)
			b.finish()
			return b.err
		}
	case http1.LengthUntilClose:
		// end-of-stream is the terminator; the transport is spent
		b.cn.Shutdown()
	}
	b.finish()
	return io.EOF
}

func (b *bodyReader) fail(err error) error {
	b.cn.Shutdown()
	if h, ok := err.(hookError); ok {
		// interceptor aborts propagate exactly as the hook returned them
		b.err = h.error
	} else if chunked.IsProtocolError(err) {
		b.err = errs.Wrap(errs.KindProtocol, errs.PhaseReceive, err)
	} else {
		b.err = errs.Wrap(errs.KindBodyTransfer, errs.PhaseReceive, err)
	}
	b.finish()
	return b.err
}

func (b *bodyReader) finish() {
	b.done = true
	b.cn.Done()
}

// Close drops the body. An undrained body means unknown bytes remain on
// the wire, so the connection is shut down rather than reused.
func (b *bodyReader) Close() error {
	if !b.done {
		b.cn.Shutdown()
		b.finish()
	}
	return nil
}

// wireReader reads raw body bytes off the connection, showing each
// inbound chunk to the interceptor.
type wireReader struct {
	cn *conn.Conn
	ic intercept.Interceptor
}

type hookError struct{ error }

func (w *wireReader) Read(p []byte) (int, error) {
	n, err := w.cn.Read(p)
	if n > 0 {
		if herr := intercept.Inbound(w.ic, p[:n]); herr != nil {
			return n, hookError{herr}
		}
	}
	return n, err
}
