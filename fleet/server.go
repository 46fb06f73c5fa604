package fleet

import (
	"net/http"
	"time"

	"gopkg.in/tylerb/graceful.v1"
)

// Server serves a handler until stopped, letting requests in flight finish.
type Server struct {
	server *graceful.Server
}

// NewServer creates a Server listening on address
func NewServer(address string, handler http.Handler) *Server {
	return &Server{
		server: &graceful.Server{
			Timeout: 35 * time.Second,
			Server: &http.Server{
				Addr:    address,
				Handler: handler,
			},
			NoSignalHandling: true,
		},
	}
}

// ListenAndServe blocks until Stop() is called, or listening fails
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Stop will stop serving requests, waiting up to timeout for requests in
// flight
func (s *Server) Stop(timeout time.Duration) {
	s.server.Stop(timeout)
}
