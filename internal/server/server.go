package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

// Server is the relay process: it accepts TCP connections on the line
// protocol, runs one session per connection under a bounded capacity, and
// routes traffic between sessions. The WebSocket front end in ws.go feeds
// the same session path.
type Server struct {
	cfg      Config
	registry *Registry
	router   *Router

	listener net.Listener
	slots    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// NewServer creates a relay server from the given configuration. Passing
// nil uses defaults.
func NewServer(cfg *Config) *Server {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	c = sanitizeConfig(c)

	registry := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:      c,
		registry: registry,
		router:   NewRouter(registry),
		slots:    make(chan struct{}, c.MaxSessions),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[*Session]struct{}),
	}
}

// Registry exposes the client registry, primarily for observability.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Listen binds the TCP endpoint. Failure to acquire it is fatal to startup.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener
	log.Printf("Relay listening on %s", listener.Addr())
	return nil
}

// Addr returns the bound TCP address. Valid after Listen.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

// Serve accepts connections until Shutdown closes the listener. The accept
// error raised by that close is expected and not treated as a failure.
func (s *Server) Serve() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("Error accepting connection: %v", err)
			continue
		}

		log.Printf("New connection from %s", conn.RemoteAddr())
		if !s.startSession(newTCPFrameConn(conn, s.cfg.MaxFrameSize)) {
			conn.Close()
		}
	}
}

// ListenAndServe binds the endpoint and runs the accept loop.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// startSession claims a capacity slot and runs the session in its own
// goroutine. It reports false when the server is at capacity or shutting
// down; the caller still owns the connection in that case.
func (s *Server) startSession(conn frameConn) bool {
	if s.ctx.Err() != nil {
		return false
	}

	select {
	case s.slots <- struct{}{}:
	default:
		log.Printf("Session capacity (%d) reached; rejecting %s", s.cfg.MaxSessions, conn.RemoteAddr())
		return false
	}

	sess := newSession(conn, s.router, s.cfg)
	s.track(sess)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.slots }()
		defer s.untrack(sess)
		sess.Run()
	}()

	return true
}

func (s *Server) track(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess] = struct{}{}
}

func (s *Server) untrack(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess)
}

// liveSessions copies the set of sessions currently running, registered or
// not.
func (s *Server) liveSessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	return sessions
}

// Shutdown stops accepting connections, closes every live session, and
// waits for their goroutines to finish or for the timeout to pass.
func (s *Server) Shutdown(timeout time.Duration) error {
	log.Println("Shutting down relay...")
	s.cancel()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing listener: %v", err)
		}
	}

	sessions := s.liveSessions()
	for _, sess := range sessions {
		sess.Close()
	}
	log.Printf("Closed %d client connections", len(sessions))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Relay shutdown completed")
		return nil
	case <-time.After(timeout):
		log.Println("Relay shutdown timeout reached, some sessions may still be running")
		return context.DeadlineExceeded
	}
}
