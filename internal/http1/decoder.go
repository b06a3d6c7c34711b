package http1

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/netforge/fetch/internal/errs"
	"github.com/netforge/fetch/internal/http"
)

// maxHeadBytes caps the status line plus headers of a response. Heads
// larger than this are rejected instead of buffered without bound.
const maxHeadBytes = 64 << 10

// ResponseHead is the decoded status line and headers of a response.
type ResponseHead struct {
	Proto      string
	Status     string // reason phrase, possibly empty
	StatusCode int
	Header     *http.Header
}

// ResponseDecoder consumes raw response bytes incrementally. Feed each
// chunk read off the wire to Decode; it returns a nil head until a full
// status-line+headers block has been seen, then the parsed head together
// with any trailing bytes that already belong to the body.
type ResponseDecoder struct {
	buf     []byte
	scanned int
}

func (d *ResponseDecoder) Decode(data []byte) (*ResponseHead, []byte, error) {
	d.buf = append(d.buf, data...)

	// resume the terminator scan where the previous call left off
	from := d.scanned - 3
	if from < 0 {
		from = 0
	}
	end := bytes.Index(d.buf[from:], []byte("\r\n\r\n"))
	if end < 0 {
		if len(d.buf) > maxHeadBytes {
			return nil, nil, errs.New(errs.KindProtocol, errs.PhaseReceive, "response head too large")
		}
		d.scanned = len(d.buf)
		return nil, nil, nil
	}
	end += from
	// the cap also binds when the terminator arrived in one gulp
	if end > maxHeadBytes {
		return nil, nil, errs.New(errs.KindProtocol, errs.PhaseReceive, "response head too large")
	}

	head, err := parseHead(d.buf[:end])
	if err != nil {
		return nil, nil, err
	}
	return head, d.buf[end+4:], nil
}

func parseHead(raw []byte) (*ResponseHead, error) {
	lines := strings.Split(string(raw), "\r\n")

	head := &ResponseHead{Header: &http.Header{}}
	proto, status, ok := strings.Cut(lines[0], " ")
	if !ok || (proto != "HTTP/1.1" && proto != "HTTP/1.0") {
		return nil, errs.New(errs.KindProtocol, errs.PhaseReceive,
			"malformed status line "+strconv.Quote(lines[0]))
	}
	head.Proto = proto
	code, reason, _ := strings.Cut(strings.TrimLeft(status, " "), " ")
	if len(code) != 3 {
		return nil, errs.New(errs.KindProtocol, errs.PhaseReceive,
			"malformed status code "+strconv.Quote(code))
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 100 {
		return nil, errs.New(errs.KindProtocol, errs.PhaseReceive,
			"malformed status code "+strconv.Quote(code))
	}
	head.StatusCode = n
	head.Status = strings.TrimSpace(reason)

	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			return nil, errs.New(errs.KindProtocol, errs.PhaseReceive,
				"malformed header line "+strconv.Quote(line))
		}
		// RFC 7230 forbids whitespace between field name and colon
		if strings.TrimRight(name, " \t") != name {
			return nil, errs.New(errs.KindProtocol, errs.PhaseReceive,
				"malformed header line "+strconv.Quote(line))
		}
		head.Header.Add(name, strings.Trim(value, " \t"))
	}
	return head, nil
}
