// Package fetch is an HTTP/1.x client built around explicit connection
// lifecycle control: pooled keep-alive connections, resumable head
// encoding, retries gated on body reusability and a typed error surface
// that says which stage of a request failed.
//
// A zero value Client works:
//
//	var client fetch.Client
//	resp, err := client.CtxDo(ctx, &fetch.Request{
//		Method: "GET", URL: "http://example.com/",
//	})
package fetch

import (
	"github.com/netforge/fetch/internal"
	"github.com/netforge/fetch/internal/errs"
	"github.com/netforge/fetch/internal/http"
	"github.com/netforge/fetch/internal/intercept"
	"github.com/netforge/fetch/internal/redirect"
)

type Client = internal.Client
type Config = internal.Config

type Request = http.Request
type PreparedRequest = http.PreparedRequest
type Response = http.Response
type Header = http.Header
type TimeGroup = http.TimeGroup

type Handler = internal.Handler
type Middleware = internal.Middleware

// Interceptor sees every chunk of raw bytes on the wire. Returning an
// error from either hook aborts the exchange.
type Interceptor = intercept.Interceptor
type InterceptFuncs = intercept.Funcs

// NewHeader builds a Header from alternating name, value pairs.
var NewHeader = http.NewHeader

var NoBody = http.NoBody

// Error is the concrete error type every failed request returns,
// carrying the failure Kind and the Phase it happened in.
type Error = errs.Error
type Kind = errs.Kind
type Phase = errs.Phase

const (
	KindConnector    = errs.KindConnector
	KindTimeout      = errs.KindTimeout
	KindProtocol     = errs.KindProtocol
	KindBodyTransfer = errs.KindBodyTransfer
	KindUserAborted  = errs.KindUserAborted
	KindRedirect     = errs.KindRedirect
)

const (
	PhaseConnect = errs.PhaseConnect
	PhaseSend    = errs.PhaseSend
	PhaseReceive = errs.PhaseReceive
)

// KindOf reports the failure Kind of err, or 0 for foreign errors.
var KindOf = errs.KindOf

type RedirectPolicy = redirect.Policy

// RedirectLimited follows up to max redirect hops, then fails the
// request. RedirectNone returns every 3xx response to the caller.
func RedirectLimited(max int) RedirectPolicy { return redirect.Limited(max) }

func RedirectNone() RedirectPolicy { return redirect.None() }
