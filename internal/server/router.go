package server

import (
	"log"

	"github.com/bala7708/Live-Messaging-App/internal/message"
)

// Router implements the relay's delivery policies: broadcast, private send
// with sender echo, and presence notification. It is the only mutator of
// the client registry.
type Router struct {
	registry *Registry
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Dispatch routes one decoded inbound message. The routing decision depends
// only on the message type and whether a receiver is named.
func (rt *Router) Dispatch(s *Session, m *message.Message) {
	switch m.Type {
	case message.TypeLogin:
		rt.handleLogin(s, m)

	case message.TypeLogout:
		rt.Disconnect(s)
		s.Close()

	case message.TypeText:
		if m.IsPrivate() {
			rt.sendPrivate(m)
		} else {
			rt.Broadcast(m)
		}

	case message.TypePrivate:
		rt.sendPrivate(m)

	case message.TypeTyping:
		// Senders see their own typing echoed; harmless.
		rt.Broadcast(m)

	case message.TypeUserList:
		rt.broadcastUserList()

	default:
		log.Printf("Unhandled message type %q from %s", m.Type, s.addr)
	}
}

func (rt *Router) handleLogin(s *Session, m *message.Message) {
	username := m.Sender
	if username == "" {
		log.Printf("Ignoring login with empty username from %s", s.addr)
		return
	}

	if !s.bindUsername(username) {
		log.Printf("Ignoring repeated login from %s (already bound to %q)", s.addr, s.Username())
		return
	}

	prior, replaced := rt.registry.Register(username, s)
	if replaced {
		// Last writer wins; the displaced connection is closed so its
		// traffic is visibly dead instead of silently orphaned.
		log.Printf("User %s logged in again from %s; closing previous session from %s", username, s.addr, prior.addr)
		prior.Close()
	}

	ack := message.New(message.TypeLogin, message.ServerSender, "Welcome, "+username+"!")
	rt.deliver(s, ack)

	rt.Broadcast(message.New(message.TypeSystem, message.ServerSender, username+" joined the chat"))
	rt.broadcastUserList()

	log.Printf("User %s logged in from %s. Total clients: %d", username, s.addr, rt.registry.Len())
}

// Broadcast delivers one message to every session registered at the moment
// of the call.
func (rt *Router) Broadcast(m *message.Message) {
	for _, s := range rt.registry.Snapshot() {
		rt.deliver(s, m)
	}
}

// sendPrivate delivers to the named receiver and echoes a confirmation copy
// back to the sender. A message for an unregistered receiver is dropped
// without any failure notice.
func (rt *Router) sendPrivate(m *message.Message) {
	receiver, ok := rt.registry.Lookup(m.Receiver)
	if !ok {
		log.Printf("Dropping private message from %s to unknown user %s", m.Sender, m.Receiver)
		return
	}
	rt.deliver(receiver, m)

	if sender, ok := rt.registry.Lookup(m.Sender); ok {
		rt.deliver(sender, m)
	}
}

func (rt *Router) broadcastUserList() {
	usernames := rt.registry.Usernames()
	snapshot := message.New(message.TypeUserList, message.ServerSender, message.EncodeUserList(usernames))
	rt.Broadcast(snapshot)
}

// deliver hands one message to a session; a session that cannot accept it
// is torn down, equivalent to a disconnect.
func (rt *Router) deliver(s *Session, m *message.Message) {
	if !s.Send(m) {
		s.Close()
	}
}

// Disconnect runs the disconnect path for a session: unregister, "left"
// notice, fresh user list. It is idempotent per session and triggered both
// by explicit logout and by session termination.
func (rt *Router) Disconnect(s *Session) {
	s.detachOnce.Do(func() {
		username := s.Username()
		if username == "" {
			log.Printf("Client disconnected from %s", s.addr)
			return
		}

		if !rt.registry.Unregister(username, s) {
			// A newer session owns the name now; nothing to announce.
			return
		}

		rt.Broadcast(message.New(message.TypeSystem, message.ServerSender, username+" left the chat"))
		rt.broadcastUserList()

		log.Printf("User %s disconnected from %s. Total clients: %d", username, s.addr, rt.registry.Len())
	})
}
