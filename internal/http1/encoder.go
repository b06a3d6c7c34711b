package http1

import (
	"bytes"
	"strconv"

	"golang.org/x/net/http/httpguts"

	"github.com/netforge/fetch/internal/errs"
	"github.com/netforge/fetch/internal/http"
)

// RequestEncoder serializes the request line and headers of one request.
// It is resumable: Encode fills as much of the caller's buffer as fits
// and keeps a cursor, so a partial downstream write never loses bytes.
// A return of 0 signals that the head has been fully emitted.
type RequestEncoder struct {
	head []byte
	pos  int
}

// NewRequestEncoder validates the request head and serializes it once.
// With absoluteURI set the request target is written in absolute form,
// which is what plaintext proxy tunnels expect. e.g.:
//
//	GET http://www.example.com/ HTTP/1.1\r\n
//	Host: www.example.com\r\n
//	\r\n
func NewRequestEncoder(r *http.PreparedRequest, absoluteURI bool) (*RequestEncoder, error) {
	var head bytes.Buffer

	method := r.Method
	if method == "" {
		method = "GET"
	}
	head.WriteString(method)
	head.WriteByte(' ')
	switch {
	case method == "CONNECT":
		// authority form
		head.WriteString(r.U.Host)
	case absoluteURI:
		head.WriteString(r.U.Scheme)
		head.WriteString("://")
		head.WriteString(r.HeaderHost)
		head.WriteString(r.U.RequestURI())
	default:
		head.WriteString(r.U.RequestURI())
	}
	head.WriteString(" HTTP/1.1\r\n")

	head.WriteString("Host: ")
	head.WriteString(r.HeaderHost)
	head.WriteString("\r\n")
	chunked := r.Header.Contains("Transfer-Encoding", "chunked")
	if r.ContentLength != -1 && !chunked {
		head.WriteString("Content-Length: ")
		head.WriteString(strconv.FormatInt(r.ContentLength, 10))
		head.WriteString("\r\n")
	}
	for _, f := range r.Header.Fields() {
		if !httpguts.ValidHeaderFieldName(f.Name) {
			return nil, errs.New(errs.KindProtocol, errs.PhaseSend,
				"invalid header field name "+strconv.Quote(f.Name))
		}
		if !httpguts.ValidHeaderFieldValue(f.Value) {
			return nil, errs.New(errs.KindProtocol, errs.PhaseSend,
				"invalid value for header field "+strconv.Quote(f.Name))
		}
		head.WriteString(f.Name)
		head.WriteString(": ")
		head.WriteString(f.Value)
		head.WriteString("\r\n")
	}
	head.WriteString("\r\n")

	return &RequestEncoder{head: head.Bytes()}, nil
}

// Encode copies the next serialized bytes into buf and advances the
// cursor. It returns 0 once everything has been emitted.
func (e *RequestEncoder) Encode(buf []byte) int {
	n := copy(buf, e.head[e.pos:])
	e.pos += n
	return n
}
