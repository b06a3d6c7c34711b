// Package http holds the request/response model every layer of the
// client shares: the ordered Header, the Request and its wire-ready
// PreparedRequest form, the Response and the per-attempt timings.
//
// A few value aliases from the standard library are re-exported to
// avoid annoying imports in callers.
package http

import (
	"net/http"
)

var NoBody = http.NoBody
