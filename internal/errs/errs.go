// Package errs defines the error taxonomy shared by the whole client:
// every failure is one Kind, tagged with the Phase of the exchange it
// occurred in, optionally wrapping a lower-level cause.
package errs

import "strconv"

type Kind uint8

const (
	// KindConnector reports a failure establishing the underlying stream.
	KindConnector Kind = iota + 1
	// KindTimeout reports an elapsed connect- or request-level timeout,
	// distinct from whatever error the aborted operation produced.
	KindTimeout
	// KindProtocol reports malformed wire data: a bad status line, header
	// or chunk grammar, or a connection closed before a complete head.
	KindProtocol
	// KindBodyTransfer reports an I/O failure while streaming a body.
	KindBodyTransfer
	// KindUserAborted reports that the caller's own body producer gave up.
	KindUserAborted
	// KindRedirect reports a redirect policy failure, e.g. the hop limit
	// was exceeded or a Location target could not be parsed.
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindConnector:
		return "connector failure"
	case KindTimeout:
		return "timeout"
	case KindProtocol:
		return "protocol error"
	case KindBodyTransfer:
		return "body transfer error"
	case KindUserAborted:
		return "user aborted"
	case KindRedirect:
		return "redirect policy error"
	}
	return "unknown error kind " + strconv.Itoa(int(k))
}

type Phase uint8

const (
	PhaseConnect Phase = iota + 1
	PhaseSend
	PhaseReceive
)

func (p Phase) String() string {
	switch p {
	case PhaseConnect:
		return "connect"
	case PhaseSend:
		return "send"
	case PhaseReceive:
		return "receive"
	}
	return "phase " + strconv.Itoa(int(p))
}

type Error struct {
	Kind  Kind
	Phase Phase
	Msg   string
	Cause error
}

func New(kind Kind, phase Phase, msg string) *Error {
	return &Error{Kind: kind, Phase: phase, Msg: msg}
}

func Wrap(kind Kind, phase Phase, cause error) *Error {
	return &Error{Kind: kind, Phase: phase, Cause: cause}
}

func (e *Error) Error() string {
	s := "fetch: " + e.Phase.String() + ": " + e.Kind.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// Timeout makes KindTimeout errors satisfy net.Error style checks.
func (e *Error) Timeout() bool { return e.Kind == KindTimeout }

// KindOf walks the error chain and returns the Kind of the outermost
// *Error, or 0 when the chain contains none.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		err = unwrap(err)
	}
	return 0
}

// Is reports whether the error chain contains an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		err = unwrap(err)
	}
	return false
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}
