// Package intercept defines the raw-byte observation hooks invoked on
// every chunk that crosses the wire. Hooks are side-effect-only but may
// return an error to abort the exchange; a hook that blocks stalls it.
package intercept

// Interceptor observes raw wire bytes. Outbound sees request bytes
// before they are written, Inbound sees response bytes right after they
// are read. The slices are only valid for the duration of the call.
type Interceptor interface {
	Outbound(p []byte) error
	Inbound(p []byte) error
}

// Funcs adapts two optional functions into an Interceptor.
type Funcs struct {
	OnOutbound func(p []byte) error
	OnInbound  func(p []byte) error
}

func (f Funcs) Outbound(p []byte) error {
	if f.OnOutbound == nil {
		return nil
	}
	return f.OnOutbound(p)
}

func (f Funcs) Inbound(p []byte) error {
	if f.OnInbound == nil {
		return nil
	}
	return f.OnInbound(p)
}

// Chain invokes interceptors in order, stopping at the first error.
type Chain []Interceptor

func (c Chain) Outbound(p []byte) error {
	for _, i := range c {
		if err := i.Outbound(p); err != nil {
			return err
		}
	}
	return nil
}

func (c Chain) Inbound(p []byte) error {
	for _, i := range c {
		if err := i.Inbound(p); err != nil {
			return err
		}
	}
	return nil
}

// Outbound calls i.Outbound, tolerating a nil interceptor.
func Outbound(i Interceptor, p []byte) error {
	if i == nil || len(p) == 0 {
		return nil
	}
	return i.Outbound(p)
}

// Inbound calls i.Inbound, tolerating a nil interceptor.
func Inbound(i Interceptor, p []byte) error {
	if i == nil || len(p) == 0 {
		return nil
	}
	return i.Inbound(p)
}
