package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/netforge/fetch/internal/conn"
	"github.com/netforge/fetch/internal/errs"
	"github.com/netforge/fetch/internal/http"
	"github.com/netforge/fetch/internal/http1"
	"github.com/netforge/fetch/internal/intercept"
	"github.com/netforge/fetch/internal/transport/chunked"
)

const defaultBufSize = 16 << 10

type HTTP1 struct {
	// BufSize is the size of the temporary transfer buffer, 16 KiB when
	// zero. One buffer serves head encoding, body pumping and head
	// decoding within an exchange.
	BufSize   int
	Intercept intercept.Interceptor
	Logger    *zap.Logger
}

func (t *HTTP1) bufSize() int {
	if t.BufSize > 0 {
		return t.BufSize
	}
	return defaultBufSize
}

func (t *HTTP1) logger() *zap.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return zap.NewNop()
}

// RoundTrip performs one exchange on cn: it writes the request head and
// body, then decodes the response head and hands back a Response whose
// body is read lazily off the same connection. On any failure the
// connection is shut down and released before the error is returned, so
// a corrupted connection can never make it back into the pool.
func (t *HTTP1) RoundTrip(ctx context.Context, cn *conn.Conn, r *http.PreparedRequest) (*http.Response, error) {
	resp, err := t.exchange(ctx, cn, r)
	if err != nil {
		cn.Shutdown()
		cn.Done()
	}
	return resp, err
}

func (t *HTTP1) exchange(ctx context.Context, cn *conn.Conn, r *http.PreparedRequest) (*http.Response, error) {
	buf := make([]byte, t.bufSize())

	r.Times.TransferStart = time.Now()
	if err := t.writeHead(cn, r, buf); err != nil {
		return nil, err
	}
	if err := t.writeBody(cn, r, buf); err != nil {
		return nil, err
	}
	head, pre, err := t.readHead(cn, r, buf)
	if err != nil {
		return nil, err
	}
	return t.buildResponse(cn, r, head, pre)
}

// writeHead drains the resumable encoder through buf. The request line
// and headers are fully on the wire before any body byte follows.
func (t *HTTP1) writeHead(cn *conn.Conn, r *http.PreparedRequest, buf []byte) error {
	enc, err := http1.NewRequestEncoder(r, cn.Proxied() && r.U.Scheme == "http")
	if err != nil {
		return err
	}
	w := flushWriter{t: t, cn: cn, kind: errs.KindProtocol}
	for {
		n := enc.Encode(buf)
		if n == 0 {
			return nil
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
	}
}

// writeBody pumps the request body through buf, flushing to the
// connection whenever the buffer fills or the body reports completion.
// Chunked framing applies when the caller set Transfer-Encoding:
// chunked; everything else, an absent body included, goes through the
// fixed-length path and simply produces no bytes when empty.
func (t *HTTP1) writeBody(cn *conn.Conn, r *http.PreparedRequest, buf []byte) error {
	body, err := r.GetBody()
	if err != nil {
		return errs.Wrap(errs.KindBodyTransfer, errs.PhaseSend, err)
	}
	if body == nil {
		return nil
	}
	defer body.Close() // request body is ALWAYS closed

	var sink io.Writer = flushWriter{t: t, cn: cn, kind: errs.KindBodyTransfer}
	var cw *chunked.Writer
	if r.Header.Contains("Transfer-Encoding", "chunked") {
		cw = chunked.NewWriter(sink)
		sink = cw
	}

	written, end := 0, false
	for !end {
		if written < len(buf) {
			n, rerr := body.Read(buf[written:])
			written += n
			switch {
			case rerr == io.EOF:
				end = true
			case rerr != nil:
				return classifyBodyError(rerr)
			}
		}
		if written == len(buf) || end {
			if written > 0 {
				if _, err := sink.Write(buf[:written]); err != nil {
					return err
				}
			}
			written = 0
		}
	}
	if cw != nil {
		return cw.Close()
	}
	return nil
}

// classifyBodyError follows the uploader convention: a body error that
// wraps a deeper cause is the caller aborting on purpose, anything else
// is a transfer failure.
func classifyBodyError(err error) error {
	if errors.Unwrap(err) != nil {
		return errs.Wrap(errs.KindUserAborted, errs.PhaseSend, err)
	}
	return errs.Wrap(errs.KindBodyTransfer, errs.PhaseSend, err)
}

// readHead feeds wire chunks to the incremental decoder until a full
// head is available. Bytes past the head belong to the body and are
// returned as pre-buffered data, never discarded.
func (t *HTTP1) readHead(cn *conn.Conn, r *http.PreparedRequest, buf []byte) (*http1.ResponseHead, []byte, error) {
	dec := &http1.ResponseDecoder{}
	for {
		n, rerr := cn.Read(buf)
		if n > 0 {
			if r.Times.TransferEnd.IsZero() {
				r.Times.TransferEnd = time.Now()
			}
			if err := intercept.Inbound(t.Intercept, buf[:n]); err != nil {
				return nil, nil, err
			}
			head, pre, err := dec.Decode(buf[:n])
			if err != nil {
				return nil, nil, err
			}
			if head != nil {
				return head, pre, nil
			}
		}
		if rerr != nil {
			// a close before a complete head is a protocol error, not
			// an end-of-body condition
			if rerr == io.EOF {
				return nil, nil, errs.New(errs.KindProtocol, errs.PhaseReceive,
					"connection closed before complete response head")
			}
			return nil, nil, errs.Wrap(errs.KindProtocol, errs.PhaseReceive, rerr)
		}
	}
}

func (t *HTTP1) buildResponse(cn *conn.Conn, r *http.PreparedRequest, head *http1.ResponseHead, pre []byte) (*http.Response, error) {
	// Reuse bookkeeping. Shutdown here only bars the connection from the
	// pool; the lazy body below may still drain what the peer sends.
	if head.Proto == "HTTP/1.0" {
		if !head.Header.Contains("Connection", "keep-alive") {
			cn.Shutdown()
		}
	} else if head.Header.Contains("Connection", "close") {
		cn.Shutdown()
	}

	if err := dedupContentLength(head.Header); err != nil {
		return nil, err
	}
	length, err := http1.ResolveBodyLength(r.Method, head.StatusCode, head.Header)
	if err != nil {
		return nil, err
	}

	status := strconv.Itoa(head.StatusCode)
	if head.Status != "" {
		status += " " + head.Status
	}
	resp := &http.Response{
		Proto:      head.Proto,
		Status:     status,
		StatusCode: head.StatusCode,
		Header:     head.Header,
		Times:      r.Times,
	}
	switch length.Kind {
	case http1.LengthFixed:
		resp.ContentLength = length.N
	case http1.LengthZero:
		resp.ContentLength = 0
	default:
		resp.ContentLength = -1
	}
	resp.Body = newBody(cn, length, pre, t.Intercept)
	t.logger().Debug("exchange complete",
		zap.Int("status", head.StatusCode), zap.Bool("reusable", !cn.IsShutdown()))
	return resp, nil
}

// dedupContentLength is hardening against response smuggling, taken
// from the standard library: listing the same value twice is tolerated,
// conflicting values are fatal. Per RFC 7230 Section 3.3.2.
func dedupContentLength(h *http.Header) error {
	vv := h.Values("Content-Length")
	if len(vv) <= 1 {
		return nil
	}
	first := textproto.TrimString(vv[0])
	for _, v := range vv[1:] {
		if textproto.TrimString(v) != first {
			return errs.New(errs.KindProtocol, errs.PhaseReceive,
				fmt.Sprintf("message cannot contain multiple Content-Length headers; got %q", vv))
		}
	}
	h.Set("Content-Length", first)
	return nil
}

// flushWriter write-alls to the connection, showing every outbound
// chunk to the interceptor first. Interceptor errors propagate as the
// hook returned them; wire errors are wrapped with the given kind.
type flushWriter struct {
	t    *HTTP1
	cn   *conn.Conn
	kind errs.Kind
}

func (w flushWriter) Write(p []byte) (int, error) {
	if err := intercept.Outbound(w.t.Intercept, p); err != nil {
		return 0, err
	}
	wrote := 0
	for wrote < len(p) {
		n, err := w.cn.Write(p[wrote:])
		wrote += n
		if err != nil {
			return wrote, errs.Wrap(w.kind, errs.PhaseSend, err)
		}
	}
	return wrote, nil
}
