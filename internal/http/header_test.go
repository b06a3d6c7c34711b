package http_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netforge/fetch/internal/http"
)

func TestHeaderKeepsInsertionOrder(t *testing.T) {
	h := http.NewHeader(
		"b-second", "2",
		"a-first", "1",
		"c-third", "3",
	)
	var names []string
	for _, f := range h.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"b-second", "a-first", "c-third"}, names)
}

func TestHeaderCaseInsensitiveLookup(t *testing.T) {
	h := http.NewHeader("Content-Type", "text/plain")
	assert.Equal(t, "text/plain", h.Get("content-type"))
	assert.True(t, h.Has("CONTENT-TYPE"))
	assert.Equal(t, "", h.Get("content-length"))

	// the spelling the caller used is preserved on the wire
	assert.Equal(t, "Content-Type", h.Fields()[0].Name)
}

func TestHeaderSetReplacesInPlace(t *testing.T) {
	h := http.NewHeader("a", "1", "X-Dup", "old", "b", "2", "x-dup", "older")
	h.Set("x-dup", "new")

	require.Equal(t, 3, h.Len())
	assert.Equal(t, []string{"new"}, h.Values("X-Dup"))
	// the surviving field keeps the first occurrence's position
	assert.Equal(t, "X-Dup", h.Fields()[1].Name)
}

func TestHeaderDel(t *testing.T) {
	h := http.NewHeader("Set-Cookie", "a=1", "other", "x", "set-cookie", "b=2")
	h.Del("SET-COOKIE")
	assert.Equal(t, 1, h.Len())
	assert.False(t, h.Has("Set-Cookie"))
}

func TestHeaderValuesInOrder(t *testing.T) {
	h := http.NewHeader("Via", "1.1 a", "Via", "1.1 b")
	assert.Equal(t, []string{"1.1 a", "1.1 b"}, h.Values("via"))
}

func TestHeaderNilSafe(t *testing.T) {
	var h *http.Header
	assert.Equal(t, "", h.Get("x"))
	assert.False(t, h.Has("x"))
	assert.Nil(t, h.Values("x"))
	assert.Zero(t, h.Len())
	assert.False(t, h.Contains("x", "y"))

	c := h.Clone()
	require.NotNil(t, c)
	c.Add("x", "1") // clone of nil is usable
	assert.Equal(t, 1, c.Len())
}

func TestHeaderCloneIsDetached(t *testing.T) {
	h := http.NewHeader("a", "1")
	c := h.Clone()
	c.Set("a", "2")
	c.Add("b", "3")
	assert.Equal(t, "1", h.Get("a"))
	assert.False(t, h.Has("b"))
}

func TestHeaderContains(t *testing.T) {
	h := http.NewHeader("Transfer-Encoding", "gzip, Chunked")
	assert.True(t, h.Contains("transfer-encoding", "chunked"))
	assert.True(t, h.Contains("Transfer-Encoding", "gzip"))
	assert.False(t, h.Contains("Transfer-Encoding", "identity"))

	h2 := http.NewHeader("Connection", "keep-alive")
	assert.True(t, h2.Contains("Connection", "keep-alive"))
	assert.False(t, h2.Contains("Connection", "keep"))
}
