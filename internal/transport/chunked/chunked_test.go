package chunked_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netforge/fetch/internal/transport/chunked"
)

func TestReaderDecodes(t *testing.T) {
	r := chunked.NewReader(strings.NewReader(
		"5\r\nhello\r\n7\r\n, world\r\n0\r\n\r\n"))
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(b))
}

func TestReaderIgnoresChunkExtensions(t *testing.T) {
	r := chunked.NewReader(strings.NewReader(
		"5;ext=1\r\nhello\r\n0;last\r\n\r\n"))
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestReaderConsumesTrailer(t *testing.T) {
	src := strings.NewReader(
		"3\r\nabc\r\n0\r\nExpires: later\r\nX-Checksum: 1\r\n\r\nNEXT")
	r := chunked.NewReader(src)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))

	// reads past the terminator keep reporting end of message
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestReaderUppercaseHex(t *testing.T) {
	r := chunked.NewReader(strings.NewReader(
		"A\r\n0123456789\r\n0\r\n\r\n"))
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Len(t, b, 10)
}

func TestReaderGrammarErrors(t *testing.T) {
	cases := map[string]string{
		"BadLengthByte":  "zz\r\nhello\r\n0\r\n\r\n",
		"EmptyLength":    "\r\nhello\r\n0\r\n\r\n",
		"LengthTooLarge": "11111111111111111\r\nx\r\n0\r\n\r\n",
		"MissingCRLF":    "3\r\nabcX\r\n0\r\n\r\n",
	}
	for name, raw := range cases {
		raw := raw
		t.Run(name, func(t *testing.T) {
			_, err := io.ReadAll(chunked.NewReader(strings.NewReader(raw)))
			require.Error(t, err)
			assert.True(t, chunked.IsProtocolError(err), "got %v", err)
		})
	}
}

func TestReaderTruncatedStream(t *testing.T) {
	for _, raw := range []string{"5\r\nhel", "5\r\nhello\r\n", "5\r\nhello\r\n0\r\n"} {
		_, err := io.ReadAll(chunked.NewReader(strings.NewReader(raw)))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF, "input %q", raw)
	}
}

func TestWriterFramesPerWrite(t *testing.T) {
	var buf bytes.Buffer
	w := chunked.NewWriter(&buf)

	_, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	_, err = w.Write(nil) // empty writes must not emit a terminator
	require.NoError(t, err)
	_, err = w.Write([]byte(", world"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, "5\r\nhello\r\n7\r\n, world\r\n0\r\n\r\n", buf.String())
}

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := chunked.NewWriter(&buf)
	payload := strings.Repeat("payload.", 1000)
	for i := 0; i < len(payload); i += 100 {
		_, err := w.Write([]byte(payload[i : i+100]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	b, err := io.ReadAll(chunked.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, payload, string(b))
}
