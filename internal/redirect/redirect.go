// Package redirect decides whether and how to follow a response that
// points somewhere else. Policies own their hop limit: the client's
// redirect loop is unbounded on purpose and relies on the policy to
// error out, not silently stop, once the limit is exceeded.
package redirect

import (
	"net/url"
	"strconv"

	"github.com/netforge/fetch/internal/errs"
	"github.com/netforge/fetch/internal/http"
)

// Info accumulates the state of one redirect chain. It is created fresh
// per logical request and mutated once per hop.
type Info struct {
	Count   int
	Visited []string
}

// Decision is what a policy wants done with a response. The zero value
// stops: the response is final.
type Decision struct {
	Follow bool
	Target string // absolute URL of the next hop
	Method string // method for the next hop
}

var Stop = Decision{}

type Policy interface {
	Redirect(req *http.Request, resp *http.Response, info *Info) (Decision, error)
}

// None never follows a redirect.
func None() Policy { return noFollow{} }

type noFollow struct{}

func (noFollow) Redirect(*http.Request, *http.Response, *Info) (Decision, error) {
	return Stop, nil
}

// Limited follows standard redirects up to max hops, then fails the
// request with a redirect policy error.
func Limited(max int) Policy { return limited{max: max} }

type limited struct{ max int }

func (l limited) Redirect(req *http.Request, resp *http.Response, info *Info) (Decision, error) {
	switch resp.StatusCode {
	case 301, 302, 303, 307, 308:
	default:
		return Stop, nil
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		// a 3xx with nothing to follow is final
		return Stop, nil
	}
	u, err := url.Parse(loc)
	if err != nil {
		return Stop, errs.Wrap(errs.KindRedirect, errs.PhaseReceive, err)
	}
	base, err := url.Parse(req.URL)
	if err != nil {
		return Stop, errs.Wrap(errs.KindRedirect, errs.PhaseReceive, err)
	}
	target := base.ResolveReference(u)

	info.Count++
	if info.Count > l.max {
		return Stop, errs.New(errs.KindRedirect, errs.PhaseReceive,
			"exceeded limit of "+strconv.Itoa(l.max)+" hops")
	}
	info.Visited = append(info.Visited, target.String())

	return Decision{
		Follow: true,
		Target: target.String(),
		Method: nextMethod(req.Method, resp.StatusCode),
	}, nil
}

// nextMethod mirrors what browsers and net/http do: 303 always rewrites
// to GET (except HEAD), and the historical 301/302 behavior rewrites
// POST to GET. 307/308 preserve the method.
func nextMethod(method string, status int) string {
	switch status {
	case 301, 302:
		if method == "POST" {
			return "GET"
		}
	case 303:
		if method != "HEAD" {
			return "GET"
		}
	}
	if method == "" {
		return "GET"
	}
	return method
}
