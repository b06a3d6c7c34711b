package redirect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netforge/fetch/internal/errs"
	"github.com/netforge/fetch/internal/http"
	"github.com/netforge/fetch/internal/redirect"
)

func response(status int, location string) *http.Response {
	h := http.NewHeader()
	if location != "" {
		h.Set("Location", location)
	}
	return &http.Response{StatusCode: status, Header: h}
}

func TestLimitedFollowsAndRewritesMethod(t *testing.T) {
	cases := map[string]struct {
		method     string
		status     int
		wantMethod string
	}{
		"MovedPermanentlyPostToGet": {"POST", 301, "GET"},
		"FoundPostToGet":            {"POST", 302, "GET"},
		"MovedPermanentlyPutKept":   {"PUT", 301, "PUT"},
		"SeeOtherAlwaysGet":         {"PUT", 303, "GET"},
		"SeeOtherHeadKept":          {"HEAD", 303, "HEAD"},
		"TemporaryPreserves":        {"POST", 307, "POST"},
		"PermanentPreserves":        {"POST", 308, "POST"},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			policy := redirect.Limited(10)
			req := &http.Request{Method: c.method, URL: "http://a.example.com/start"}
			d, err := policy.Redirect(req, response(c.status, "http://b.example.com/next"), &redirect.Info{})
			require.NoError(t, err)
			require.True(t, d.Follow)
			assert.Equal(t, "http://b.example.com/next", d.Target)
			assert.Equal(t, c.wantMethod, d.Method)
		})
	}
}

func TestLimitedResolvesRelativeLocation(t *testing.T) {
	policy := redirect.Limited(10)
	req := &http.Request{Method: "GET", URL: "http://a.example.com/dir/page"}
	d, err := policy.Redirect(req, response(302, "../other?x=1"), &redirect.Info{})
	require.NoError(t, err)
	require.True(t, d.Follow)
	assert.Equal(t, "http://a.example.com/other?x=1", d.Target)
}

func TestLimitedNonRedirectIsFinal(t *testing.T) {
	policy := redirect.Limited(10)
	req := &http.Request{Method: "GET", URL: "http://a.example.com/"}
	for _, status := range []int{200, 204, 304, 400, 500} {
		d, err := policy.Redirect(req, response(status, "http://b.example.com/"), &redirect.Info{})
		require.NoError(t, err)
		assert.False(t, d.Follow, "status %d", status)
	}
}

func TestLimitedEmptyLocationIsFinal(t *testing.T) {
	policy := redirect.Limited(10)
	req := &http.Request{Method: "GET", URL: "http://a.example.com/"}
	d, err := policy.Redirect(req, response(301, ""), &redirect.Info{})
	require.NoError(t, err)
	assert.False(t, d.Follow)
}

func TestLimitedEnforcesHopLimit(t *testing.T) {
	policy := redirect.Limited(2)
	req := &http.Request{Method: "GET", URL: "http://a.example.com/"}
	info := &redirect.Info{}

	for hop := 0; hop < 2; hop++ {
		d, err := policy.Redirect(req, response(302, "http://a.example.com/again"), info)
		require.NoError(t, err)
		require.True(t, d.Follow)
	}
	_, err := policy.Redirect(req, response(302, "http://a.example.com/again"), info)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindRedirect))
	assert.Len(t, info.Visited, 2)
}

func TestNoneNeverFollows(t *testing.T) {
	d, err := redirect.None().Redirect(
		&http.Request{Method: "GET", URL: "http://a.example.com/"},
		response(301, "http://b.example.com/"), &redirect.Info{})
	require.NoError(t, err)
	assert.False(t, d.Follow)
}
