package chunked

import (
	"bufio"
	"io"
)

// protocolError marks violations of the chunk grammar, as opposed to
// plain I/O failures on the underlying stream.
type protocolError string

func (e protocolError) Error() string { return string(e) }

func IsProtocolError(err error) bool {
	_, ok := err.(protocolError)
	return ok
}

// NewReader decodes chunked transfer coding read from r. It returns
// io.EOF once the terminating zero-size chunk and its trailer section
// have been fully consumed, leaving the underlying stream positioned
// after the message so the connection can be reused.
func NewReader(r io.Reader) io.Reader {
	var br *bufio.Reader
	if v, ok := r.(*bufio.Reader); ok {
		br = v
	} else {
		br = bufio.NewReader(r)
	}
	return &chunkedReader{Reader: br}
}

type chunkedReader struct {
	*bufio.Reader
	currentChunk                   io.Reader
	currentCount, currentChunkSize int64
	done                           bool
}

func (c *chunkedReader) readChunkHeader() (size uint64, err error) {
	cnt := 0
	isPref := true
	for isPref {
		var line []byte
		line, isPref, err = c.ReadLine()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		for _, b := range line {
			if b == ';' {
				// chunk extensions are ignored
				break
			}
			cnt++
			switch {
			case '0' <= b && b <= '9':
				b = b - '0'
			case 'a' <= b && b <= 'f':
				b = b - 'a' + 10
			case 'A' <= b && b <= 'F':
				b = b - 'A' + 10
			default:
				return 0, protocolError("invalid byte in chunk length")
			}
			size <<= 4
			size |= uint64(b)
		}
		if cnt >= 16 {
			return 0, protocolError("http chunk length too large")
		}
	}
	if cnt == 0 {
		return 0, protocolError("empty chunk length")
	}
	return
}

// discardTrailer consumes the trailer section following the zero-size
// chunk, up to and including the blank line that ends the message.
func (c *chunkedReader) discardTrailer() error {
	for {
		line, isPref, err := c.ReadLine()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		if isPref {
			continue
		}
		if len(line) == 0 {
			return nil
		}
	}
}

func (c *chunkedReader) Read(p []byte) (n int, err error) {
	if c.done {
		return 0, io.EOF
	}
	if c.currentChunk == nil {
		l, err := c.readChunkHeader()
		if err != nil {
			return 0, err
		}
		if l == 0 {
			if err := c.discardTrailer(); err != nil {
				return 0, err
			}
			c.done = true
			return 0, io.EOF
		}
		c.currentChunk = io.LimitReader(c.Reader, int64(l))
		c.currentChunkSize = int64(l)
		c.currentCount = 0
	}
	n, err = c.currentChunk.Read(p)
	c.currentCount += int64(n)
	if err == io.EOF {
		if c.currentCount != c.currentChunkSize {
			return n, io.ErrUnexpectedEOF
		}
		err = nil
		dr, _ := c.Reader.ReadByte()
		dn, rerr := c.Reader.ReadByte()
		if rerr != nil {
			if rerr == io.EOF {
				rerr = io.ErrUnexpectedEOF
			}
			return n, rerr
		}
		if dr != '\r' || dn != '\n' {
			return n, protocolError("malformed chunked encoding")
		}
		c.currentChunk = nil
	}
	return
}
