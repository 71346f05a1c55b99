package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Server wraps the standard http.Server with defaults suited to an API that
// accepts large multipart uploads.
type Server struct {
	httpServer *http.Server
}

// New constructs a server listening on the provided port. No write timeout is
// set because video uploads legitimately take minutes on slow links.
func New(port int, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * time.Minute,
			MaxHeaderBytes:    1 << 20,
		},
	}
}

// Start begins serving HTTP traffic and blocks until the listener stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting new connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
