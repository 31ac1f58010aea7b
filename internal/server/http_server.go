package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// HealthHandler reports the relay's status and connected-client count.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Live messaging relay is running. Connected users: %d\n", s.registry.Len())
}

// Routes configures the HTTP ServeMux for the relay's front end: a health
// check and the WebSocket endpoint.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HealthHandler)
	mux.HandleFunc("/ws", s.WebSocketHandler)
	return mux
}

// NewHTTPServer creates the HTTP server for the relay front end with
// production timeout settings.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// ShutdownHTTPServer gracefully shuts the HTTP server down, waiting for
// active requests up to the timeout.
func ShutdownHTTPServer(server *http.Server, timeout time.Duration) error {
	log.Println("Shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		return err
	}

	log.Println("HTTP server shutdown completed")
	return nil
}
