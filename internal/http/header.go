package http

import (
	"strings"
)

// Field is one header line. Headers keep fields in the order they were
// added, which is also the order they are written to the wire and the
// order they were seen in a response.
type Field struct {
	Name, Value string
}

// Header is an ordered, case-insensitive header map. Lookups fold case;
// writes preserve the spelling the caller used.
type Header struct {
	fields []Field
}

// NewHeader builds a Header from alternating name, value pairs.
func NewHeader(pairs ...string) *Header {
	h := &Header{}
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Add(pairs[i], pairs[i+1])
	}
	return h
}

// Add appends a field, keeping any existing fields of the same name.
func (h *Header) Add(name, value string) {
	h.fields = append(h.fields, Field{name, value})
}

// Set replaces every field named name with a single field. The new field
// takes the position of the first replaced one, or appends when the name
// was absent.
func (h *Header) Set(name, value string) {
	for i, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			h.fields[i] = Field{f.Name, value}
			h.del(name, i+1)
			return
		}
	}
	h.Add(name, value)
}

// Get returns the value of the first field named name, or "".
func (h *Header) Get(name string) string {
	if h == nil {
		return ""
	}
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

func (h *Header) Has(name string) bool {
	if h == nil {
		return false
	}
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// Values returns every value carried under name, in order.
func (h *Header) Values(name string) []string {
	if h == nil {
		return nil
	}
	var vv []string
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			vv = append(vv, f.Value)
		}
	}
	return vv
}

// Del removes every field named name.
func (h *Header) Del(name string) {
	if h == nil {
		return
	}
	h.del(name, 0)
}

func (h *Header) del(name string, from int) {
	kept := h.fields[:from]
	for _, f := range h.fields[from:] {
		if !strings.EqualFold(f.Name, name) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.fields)
}

// Fields exposes the underlying slice in wire order. Callers must not
// mutate it.
func (h *Header) Fields() []Field {
	if h == nil {
		return nil
	}
	return h.fields
}

// Clone is nil-safe: cloning a nil Header yields an empty one, so
// request normalization never has to special-case absent headers.
func (h *Header) Clone() *Header {
	c := &Header{}
	if h != nil {
		c.fields = append(c.fields, h.fields...)
	}
	return c
}

// Contains reports whether any field named name carries token as one of
// its comma-separated elements, matching case-insensitively. It is the
// lookup behind Connection and Transfer-Encoding decisions.
func (h *Header) Contains(name, token string) bool {
	if h == nil {
		return false
	}
	for _, f := range h.fields {
		if !strings.EqualFold(f.Name, name) {
			continue
		}
		for _, part := range strings.Split(f.Value, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}
