// Package middlewares contains the HTTP middleware stack: request id,
// panic recovery, security headers, access logging, CORS, rate limiting
// and credential authentication.
package middlewares

import "net/http"

// Middleware decorates a handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares outermost-first: Chain(h, a, b) runs a, then
// b, then h.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
