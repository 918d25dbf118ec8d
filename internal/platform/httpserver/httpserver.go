// Package httpserver constructs the API server with timeouts suited to
// short punch and verification requests.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server for the given handler. Write timeout leaves
// headroom for a verification provider round trip.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
