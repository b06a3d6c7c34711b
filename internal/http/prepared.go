package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
)

// PreparedRequest is a Request normalized for the wire: parsed URL, the
// Host header split out, Content-Length reconciled with the actual body,
// and the body turned into a GetBody producer. BodyReusable reports
// whether GetBody can produce the same bytes more than once, which is
// what gates retries and redirect re-sends.
type PreparedRequest struct {
	*Request

	U          *url.URL
	GetBody    func() (io.ReadCloser, error)
	Header     *Header
	HeaderHost string

	ContentLength int64
	BodyReusable  bool

	Times TimeGroup
}

func (r *Request) Prepare() (*PreparedRequest, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, err
	}

	headers := r.Header.Clone()
	host := u.Host
	cl := int64(-1)
	// user defined headers take priority over derived values
	if v := headers.Get("Host"); v != "" {
		host = v
	}
	headers.Del("Host")
	if v := headers.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cl = n
		}
	}
	headers.Del("Content-Length")
	if host == "" {
		return nil, url.InvalidHostError("empty host")
	}

	pr := &PreparedRequest{
		Request: r, U: u,
		Header: headers, HeaderHost: host,
		ContentLength: cl,
	}
	if err := pr.updateBody(); err != nil {
		// note that updateBody potentially updates content-length
		return nil, err
	}
	if cl != -1 && pr.ContentLength != cl {
		return nil, errors.New("conflicting value between body size and content-length request header")
	}
	return pr, nil
}

// should only be called once at [Prepare]
func (r *PreparedRequest) updateBody() (err error) {
	if r.Request.Body == nil {
		r.BodyReusable = true
		r.GetBody = func() (io.ReadCloser, error) {
			return http.NoBody, nil
		}
		return nil
	}
	r.BodyReusable = true
	switch b := r.Request.Body.(type) {
	case string:
		r.ContentLength = int64(len(b))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(b)), nil
		}
	case []byte:
		r.ContentLength = int64(len(b))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		}
	case *bytes.Buffer: // below is taken from http.NewRequest
		r.ContentLength = int64(b.Len())
		buf := b.Bytes()
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		}
	case *bytes.Reader:
		r.ContentLength = int64(b.Len())
		snapshot := *b
		r.GetBody = func() (io.ReadCloser, error) {
			r := snapshot
			return io.NopCloser(&r), nil
		}
	case *strings.Reader:
		r.ContentLength = int64(b.Len())
		snapshot := *b
		r.GetBody = func() (io.ReadCloser, error) {
			r := snapshot
			return io.NopCloser(&r), nil
		}
	case io.Reader:
		// a plain stream can only be produced once
		r.BodyReusable = false
		if sizer, ok := b.(interface{ Size() int64 }); ok {
			r.ContentLength = sizer.Size()
		}
		cb, ok := b.(io.ReadCloser)
		if !ok {
			cb = io.NopCloser(b)
		}
		once := uint32(0)
		r.GetBody = func() (io.ReadCloser, error) {
			if atomic.CompareAndSwapUint32(&once, 0, 1) {
				return cb, nil
			}
			return nil, http.ErrBodyReadAfterClose
		}
	default:
		return fmt.Errorf("unsupported body type: %T", r.Request.Body)
	}
	return nil
}
