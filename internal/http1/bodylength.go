// Package http1 implements the HTTP/1.x wire codec: a resumable request
// encoder, an incremental response decoder and the body framing rules.
package http1

import (
	"strconv"
	"strings"

	"github.com/netforge/fetch/internal/errs"
	"github.com/netforge/fetch/internal/http"
)

type BodyLengthKind uint8

const (
	// LengthZero means the response carries no body regardless of headers.
	LengthZero BodyLengthKind = iota
	// LengthFixed means exactly N bytes follow the head.
	LengthFixed
	// LengthChunked means the body uses chunked transfer coding.
	LengthChunked
	// LengthUntilClose means the body ends when the peer closes.
	LengthUntilClose
)

// BodyLength is the framing decision for one response, computed once per
// exchange and immutable afterwards.
type BodyLength struct {
	Kind BodyLengthKind
	N    int64 // valid only for LengthFixed
}

// ResolveBodyLength applies the HTTP body-length rules of RFC 7230 §3.3.3
// to the request method and the decoded response head:
//
//  1. HEAD requests, 1xx/204/304 statuses and 2xx answers to CONNECT
//     never have a body, whatever the headers claim.
//  2. A Transfer-Encoding containing "chunked" wins over Content-Length.
//  3. A parseable, non-negative Content-Length gives a fixed length.
//  4. Otherwise the body runs until the connection closes.
//
// A Content-Length that does not parse is a protocol error, never a
// silent fall-through to until-close.
func ResolveBodyLength(method string, status int, header *http.Header) (BodyLength, error) {
	switch {
	case method == "HEAD",
		status >= 100 && status < 200,
		status == 204,
		status == 304,
		method == "CONNECT" && status >= 200 && status < 300:
		return BodyLength{Kind: LengthZero}, nil
	}

	if header.Has("Transfer-Encoding") {
		if header.Contains("Transfer-Encoding", "chunked") {
			return BodyLength{Kind: LengthChunked}, nil
		}
	}

	if v := header.Get("Content-Length"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n < 0 {
			return BodyLength{}, errs.New(errs.KindProtocol, errs.PhaseReceive,
				"invalid Content-Length "+strconv.Quote(v))
		}
		return BodyLength{Kind: LengthFixed, N: n}, nil
	}

	return BodyLength{Kind: LengthUntilClose}, nil
}
