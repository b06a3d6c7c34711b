package http1_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netforge/fetch/internal/errs"
	"github.com/netforge/fetch/internal/http1"
)

func TestDecodeSingleChunk(t *testing.T) {
	dec := &http1.ResponseDecoder{}
	head, pre, err := dec.Decode([]byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"))
	require.NoError(t, err)
	require.NotNil(t, head)

	assert.Equal(t, "HTTP/1.1", head.Proto)
	assert.Equal(t, 200, head.StatusCode)
	assert.Equal(t, "OK", head.Status)
	assert.Equal(t, "5", head.Header.Get("Content-Length"))
	assert.Equal(t, "hello", string(pre))
}

func TestDecodeResumesAcrossReads(t *testing.T) {
	raw := "HTTP/1.1 301 Moved Permanently\r\n" +
		"Location: http://www.example.com/new\r\n" +
		"Content-Length: 2\r\n" +
		"\r\nok-and-some-body"

	// every split point must produce the same head and leftover
	for cut := 1; cut < len(raw); cut++ {
		dec := &http1.ResponseDecoder{}
		head, pre, err := dec.Decode([]byte(raw[:cut]))
		require.NoError(t, err, "cut=%d", cut)
		if head == nil {
			head, pre, err = dec.Decode([]byte(raw[cut:]))
			require.NoError(t, err, "cut=%d", cut)
		}
		require.NotNil(t, head, "cut=%d", cut)
		assert.Equal(t, 301, head.StatusCode)
		assert.Equal(t, "http://www.example.com/new", head.Header.Get("Location"))
		assert.Equal(t, "ok-and-some-body", string(pre), "cut=%d", cut)
	}
}

func TestDecodeByteAtATime(t *testing.T) {
	raw := "HTTP/1.0 204 No Content\r\nServer: t\r\n\r\n"
	dec := &http1.ResponseDecoder{}
	for i := 0; i < len(raw)-1; i++ {
		head, _, err := dec.Decode([]byte{raw[i]})
		require.NoError(t, err)
		require.Nil(t, head, "head complete too early at byte %d", i)
	}
	head, pre, err := dec.Decode([]byte{raw[len(raw)-1]})
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "HTTP/1.0", head.Proto)
	assert.Equal(t, 204, head.StatusCode)
	assert.Empty(t, pre)
}

func TestDecodeHeaderOrderPreserved(t *testing.T) {
	dec := &http1.ResponseDecoder{}
	head, _, err := dec.Decode([]byte(
		"HTTP/1.1 200 OK\r\nB: 2\r\nA: 1\r\nB: 3\r\n\r\n"))
	require.NoError(t, err)
	require.NotNil(t, head)

	var names []string
	for _, f := range head.Header.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"B", "A", "B"}, names)
	assert.Equal(t, []string{"2", "3"}, head.Header.Values("B"))
}

func TestDecodeEmptyReasonPhrase(t *testing.T) {
	dec := &http1.ResponseDecoder{}
	head, _, err := dec.Decode([]byte("HTTP/1.1 200\r\n\r\n"))
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, 200, head.StatusCode)
	assert.Equal(t, "", head.Status)
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"BadProto":         "HTTP/2.0 200 OK\r\n\r\n",
		"NoStatusLine":     "garbage\r\n\r\n",
		"ShortCode":        "HTTP/1.1 20 OK\r\n\r\n",
		"NonNumericCode":   "HTTP/1.1 2x0 OK\r\n\r\n",
		"CodeBelow100":     "HTTP/1.1 099 Early\r\n\r\n",
		"HeaderNoColon":    "HTTP/1.1 200 OK\r\nBroken-Line\r\n\r\n",
		"SpaceBeforeColon": "HTTP/1.1 200 OK\r\nName : v\r\n\r\n",
		"EmptyHeaderName":  "HTTP/1.1 200 OK\r\n: v\r\n\r\n",
	}
	for name, raw := range cases {
		raw := raw
		t.Run(name, func(t *testing.T) {
			dec := &http1.ResponseDecoder{}
			_, _, err := dec.Decode([]byte(raw))
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindProtocol))
		})
	}
}

func TestDecodeHeadTooLarge(t *testing.T) {
	dec := &http1.ResponseDecoder{}
	_, _, err := dec.Decode([]byte("HTTP/1.1 200 OK\r\nX: " + strings.Repeat("a", 65<<10)))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindProtocol))
}

func TestDecodeHeadTooLargeWithTerminator(t *testing.T) {
	// oversized heads are rejected even when the whole block, terminator
	// included, arrives in a single read
	dec := &http1.ResponseDecoder{}
	_, _, err := dec.Decode([]byte("HTTP/1.1 200 OK\r\nX: " + strings.Repeat("a", 65<<10) + "\r\n\r\n"))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindProtocol))
}
