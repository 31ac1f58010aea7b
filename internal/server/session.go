package server

import (
	"bytes"
	"errors"
	"io"
	"log"
	"sync"

	"github.com/bala7708/Live-Messaging-App/internal/message"
)

// Session owns exactly one client connection. It translates the raw stream
// into decoded messages for the router and serializes outbound frames
// through a buffered send queue drained by a single write pump, so router
// fan-out never blocks on a slow peer.
type Session struct {
	conn    frameConn
	router  *Router
	send    chan []byte
	addr    string
	limiter *rateLimiter

	mu       sync.Mutex
	username string
	closed   bool

	done       chan struct{}
	detachOnce sync.Once
}

func newSession(conn frameConn, router *Router, cfg Config) *Session {
	return &Session{
		conn:    conn,
		router:  router,
		send:    make(chan []byte, cfg.SendBuffer),
		addr:    conn.RemoteAddr(),
		limiter: newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		done:    make(chan struct{}),
	}
}

// Username returns the name bound at login, or "" while unauthenticated.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// bindUsername binds the session's identity exactly once.
func (s *Session) bindUsername(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.username != "" {
		return false
	}
	s.username = username
	return true
}

// Run drives the session until the peer disconnects, a non-recoverable read
// error occurs, or the session is closed. It invokes the router's disconnect
// path exactly once before returning.
func (s *Session) Run() {
	go s.writePump()

	s.readLoop()

	s.Close()
	s.router.Disconnect(s)
}

func (s *Session) readLoop() {
	for {
		frame, err := s.conn.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && !isExpectedCloseError(err) {
				log.Printf("Read error from %s: %v", s.addr, err)
			}
			return
		}

		frame = bytes.TrimSpace(frame)
		if len(frame) == 0 {
			continue
		}

		if !s.limiter.allow() {
			log.Printf("Rate limit exceeded for %s; discarding frame", s.addr)
			continue
		}

		msg, err := message.Decode(frame)
		if err != nil {
			// One bad frame does not terminate the connection.
			log.Printf("Dropping malformed frame from %s: %v", s.addr, err)
			continue
		}

		s.router.Dispatch(s, msg)
	}
}

func (s *Session) writePump() {
	for {
		select {
		case frame := <-s.send:
			if err := s.conn.WriteFrame(frame); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Write error to %s: %v", s.addr, err)
				}
				// A failed write means the peer is gone; unblock the
				// read loop so teardown runs.
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// Send queues one message for delivery on this connection. It reports false
// when the session is closed or its outbound queue is full; the router
// treats that as a disconnect.
func (s *Session) Send(m *message.Message) bool {
	frame, err := message.Encode(m)
	if err != nil {
		log.Printf("Error encoding message for %s: %v", s.addr, err)
		return true
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	select {
	case s.send <- frame:
		return true
	default:
		log.Printf("Send queue full for %s", s.addr)
		return false
	}
}

// Close releases the underlying connection and stops the write pump. It is
// safe to call from any goroutine, any number of times.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.Printf("Error closing connection from %s: %v", s.addr, err)
	}
}
