package internal

import (
	"context"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/netforge/fetch/internal/http"
)

// decompress is the built-in middleware for transparent gzip handling:
// it advertises gzip when the caller expressed no preference of their
// own and unwraps the response body when the server took the offer.
// Responses to requests where the caller set Accept-Encoding themselves
// are passed through untouched.
func decompress(next Handler) Handler {
	return func(ctx context.Context, pr *PreparedRequest) (*http.Response, error) {
		injected := false
		if !pr.Header.Has("Accept-Encoding") && !pr.Header.Has("Range") && pr.Method != "HEAD" {
			pr.Header.Add("Accept-Encoding", "gzip")
			injected = true
		}
		resp, err := next(ctx, pr)
		if injected {
			// keep the prepared request pristine for a retry
			pr.Header.Del("Accept-Encoding")
		}
		if err != nil || !injected {
			return resp, err
		}
		if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
			resp.Header.Del("Content-Encoding")
			resp.Header.Del("Content-Length")
			resp.ContentLength = -1
			resp.Body = &gzipBody{body: resp.Body}
		}
		return resp, nil
	}
}

// gzipBody defers constructing the gzip reader until the first Read, so
// an unread body costs nothing and Close still releases the connection.
type gzipBody struct {
	body io.ReadCloser
	zr   *gzip.Reader
}

func (g *gzipBody) Read(p []byte) (int, error) {
	if g.zr == nil {
		zr, err := gzip.NewReader(g.body)
		if err != nil {
			return 0, err
		}
		g.zr = zr
	}
	return g.zr.Read(p)
}

func (g *gzipBody) Close() error {
	if g.zr != nil {
		g.zr.Close()
	}
	return g.body.Close()
}
