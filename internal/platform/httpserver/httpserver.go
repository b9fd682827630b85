package httpserver

import (
	"net/http"
	"time"
)

// New builds the verifier HTTP server. Wallet responses can be large, so the
// read timeout is looser than the header timeout.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
