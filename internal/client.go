package internal

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/netforge/fetch/internal/conn"
	"github.com/netforge/fetch/internal/dialer"
	"github.com/netforge/fetch/internal/errs"
	"github.com/netforge/fetch/internal/http"
	"github.com/netforge/fetch/internal/intercept"
	"github.com/netforge/fetch/internal/redirect"
	"github.com/netforge/fetch/internal/transport"
)

type PreparedRequest = http.PreparedRequest
type Dialer = http.Dialer

type Handler = func(ctx context.Context, req *PreparedRequest) (*http.Response, error)
type Middleware func(next Handler) Handler

// Config is the plain-value configuration surface of a Client. The zero
// value works: no timeouts, no retries, up to 10 redirects.
type Config struct {
	// ConnectTimeout bounds obtaining a connection. Elapsing yields a
	// timeout error, distinct from whatever the connector failed with.
	ConnectTimeout time.Duration
	// RequestTimeout bounds one attempt end to end, from writing the
	// head until the response body has been read to completion.
	RequestTimeout time.Duration
	// Retry is how many times a failed attempt may be repeated. Only
	// requests whose body can be reproduced from the start are retried.
	Retry int
	// Redirect decides whether 3xx responses are followed. Defaults to
	// redirect.Limited(10).
	Redirect redirect.Policy
	// Intercept observes every chunk of raw bytes sent and received.
	Intercept intercept.Interceptor
	// BufSize overrides the transfer buffer size.
	BufSize int
	// DisableCompression turns off transparent gzip decoding.
	DisableCompression bool

	Logger *zap.Logger
}

type Client struct {
	Config Config

	middlewares []Middleware
	dialer      Dialer
}

// Use appends mw to the end of the chain. The first "Use"d mw sits
// outermost and sees the request first.
func (c *Client) Use(mws ...Middleware) {
	c.middlewares = append(c.middlewares, mws...)
}

// UseDialer swaps the connector, receiving the current one (nil when
// the default has not been replaced yet) for wrapping.
func (c *Client) UseDialer(mw func(Dialer) Dialer) {
	c.dialer = mw(c.dialer)
}

var defaultDialer = &dialer.CoreDialer{}

func (c *Client) dial(ctx context.Context, req *PreparedRequest) (io.ReadWriteCloser, error) {
	if c.dialer != nil {
		return c.dialer.Dial(ctx, req)
	}
	return defaultDialer.Dial(ctx, req)
}

func (c *Client) logger() *zap.Logger {
	if c.Config.Logger != nil {
		return c.Config.Logger
	}
	return zap.NewNop()
}

// CtxDo sends one logical request: attempt, then retry while the retry
// budget lasts and the body is reusable. A successful exchange never
// consumes a retry.
func (c *Client) CtxDo(ctx context.Context, req *http.Request) (*http.Response, error) {
	pr, err := req.Prepare()
	if err != nil {
		return nil, err
	}
	retries := c.Config.Retry
	for {
		resp, next, err := c.sendWithRedirect(ctx, pr)
		if err == nil || retries <= 0 || !pr.BodyReusable {
			return resp, err
		}
		retries--
		next.Times.Reset()
		pr = next
		c.logger().Debug("retrying request", zap.String("url", pr.Request.URL), zap.Error(err))
	}
}

// sendWithRedirect runs one attempt and then iterates the redirect
// policy. The loop itself is unbounded: enforcing the hop limit is the
// policy's contract, and a policy error fails the request immediately.
func (c *Client) sendWithRedirect(ctx context.Context, pr *PreparedRequest) (*http.Response, *PreparedRequest, error) {
	resp, err := c.send(ctx, pr)
	if err != nil {
		return nil, pr, err
	}
	policy := c.Config.Redirect
	if policy == nil {
		policy = redirect.Limited(10)
	}
	info := &redirect.Info{}
	for {
		decision, err := policy.Redirect(pr.Request, resp, info)
		if err != nil {
			resp.Body.Close()
			return nil, pr, err
		}
		if !decision.Follow {
			return resp, pr, nil
		}
		// drop this hop's body; a short drain keeps the connection reusable
		io.CopyN(io.Discard, resp.Body, 4<<10)
		resp.Body.Close()

		// keep the pre-hop request on failure so a retrying caller still
		// has a request to reset
		next, err := repoint(pr, decision)
		if err != nil {
			return nil, pr, err
		}
		pr = next
		c.logger().Debug("following redirect",
			zap.String("to", decision.Target), zap.Int("hop", info.Count))
		if resp, err = c.send(ctx, pr); err != nil {
			return nil, pr, err
		}
	}
}

// repoint re-targets the request at the next hop. A body that cannot be
// reproduced is replaced with an empty one, as is any body dropped by a
// method rewrite.
func repoint(pr *PreparedRequest, decision redirect.Decision) (*PreparedRequest, error) {
	req := pr.Request
	req.URL = decision.Target
	if decision.Method != "" && decision.Method != req.Method {
		req.Method = decision.Method
		req.Body = nil
	}
	if !pr.BodyReusable {
		req.Body = nil
	}
	return req.Prepare()
}

// send runs a single attempt through the middleware chain.
func (c *Client) send(ctx context.Context, pr *PreparedRequest) (*http.Response, error) {
	next := Handler(func(ctx context.Context, pr *PreparedRequest) (*http.Response, error) {
		cn, err := c.connect(ctx, pr)
		if err != nil {
			return nil, err
		}
		return c.exchange(ctx, cn, pr)
	})
	if !c.Config.DisableCompression {
		next = decompress(next)
	}
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		next = c.middlewares[i](next)
	}
	return next(ctx, pr)
}

func (c *Client) connect(ctx context.Context, pr *PreparedRequest) (*conn.Conn, error) {
	pr.Times.ConnectStart = time.Now()
	dctx, cancel := ctx, context.CancelFunc(func() {})
	if c.Config.ConnectTimeout > 0 {
		dctx, cancel = context.WithTimeout(ctx, c.Config.ConnectTimeout)
	}
	defer cancel()
	s, err := c.dial(dctx, pr)
	pr.Times.ConnectEnd = time.Now()
	if err != nil {
		if dctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, errs.Wrap(errs.KindTimeout, errs.PhaseConnect, err)
		}
		return nil, errs.Wrap(errs.KindConnector, errs.PhaseConnect, err)
	}
	return conn.New(s), nil
}

// exchange wraps one round trip in the request timeout. The timeout
// covers writing the head through reading the body to completion; when
// it elapses the attempt is abandoned and the connection aborted, since
// the abandoned operation cannot be relied on to clean up itself.
func (c *Client) exchange(ctx context.Context, cn *conn.Conn, pr *PreparedRequest) (*http.Response, error) {
	rctx, cancel := context.WithCancel(ctx)
	if c.Config.RequestTimeout > 0 {
		rctx, cancel = context.WithTimeout(ctx, c.Config.RequestTimeout)
	}
	stop := make(chan struct{})
	go func() {
		select {
		case <-rctx.Done():
			cn.Abort()
		case <-stop:
		}
	}()

	t := &transport.HTTP1{
		BufSize:   c.Config.BufSize,
		Intercept: c.Config.Intercept,
		Logger:    c.Config.Logger,
	}
	resp, err := t.RoundTrip(rctx, cn, pr)
	if err != nil {
		close(stop)
		cancel()
		if rctx.Err() != nil && ctx.Err() == nil {
			return nil, timeoutError(err)
		}
		return nil, err
	}
	resp.Body = &deadlineBody{
		ReadCloser: resp.Body,
		rctx:       rctx, outer: ctx,
		cancel: cancel, stop: stop,
	}
	return resp, nil
}

// timeoutError reports an elapsed request timeout, keeping the phase of
// the operation that was cut short.
func timeoutError(cause error) error {
	phase := errs.PhaseSend
	if e, ok := cause.(*errs.Error); ok {
		phase = e.Phase
	}
	return errs.Wrap(errs.KindTimeout, phase, cause)
}

// deadlineBody keeps the request-timeout watchdog alive until the body
// is read to completion or dropped, and reports an elapsed timeout as
// such rather than as the I/O error the aborted connection produced.
type deadlineBody struct {
	io.ReadCloser
	rctx, outer context.Context
	cancel      context.CancelFunc
	stop        chan struct{}
	once        sync.Once
}

func (b *deadlineBody) release() {
	b.once.Do(func() {
		close(b.stop)
		b.cancel()
	})
}

func (b *deadlineBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil {
		if err != io.EOF && b.rctx.Err() != nil && b.outer.Err() == nil {
			err = errs.Wrap(errs.KindTimeout, errs.PhaseReceive, err)
		}
		b.release()
	}
	return n, err
}

func (b *deadlineBody) Close() error {
	err := b.ReadCloser.Close()
	b.release()
	return err
}
