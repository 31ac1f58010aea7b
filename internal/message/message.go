// Package message defines the chat message model shared by the relay and its
// clients, along with the newline-delimited JSON codec used on the wire.
package message

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of payload a Message carries.
type Type string

// Message types understood by the protocol. FILE, GROUP, and STATUS are
// reserved: they decode cleanly but the relay routes them nowhere.
const (
	TypeText     Type = "TEXT"
	TypeLogin    Type = "LOGIN"
	TypeLogout   Type = "LOGOUT"
	TypeUserList Type = "USER_LIST"
	TypePrivate  Type = "PRIVATE"
	TypeGroup    Type = "GROUP"
	TypeSystem   Type = "SYSTEM"
	TypeTyping   Type = "TYPING"
	TypeFile     Type = "FILE"
	TypeStatus   Type = "STATUS"
)

// ServerSender is the reserved sender identity for relay-originated
// notifications (SYSTEM notices, USER_LIST snapshots, LOGIN acks).
const ServerSender = "SERVER"

var knownTypes = map[Type]struct{}{
	TypeText:     {},
	TypeLogin:    {},
	TypeLogout:   {},
	TypeUserList: {},
	TypePrivate:  {},
	TypeGroup:    {},
	TypeSystem:   {},
	TypeTyping:   {},
	TypeFile:     {},
	TypeStatus:   {},
}

// Message is one unit of communication between a client and the relay.
// Type, Sender, Timestamp, and ID are fixed at construction; Receiver and
// Content are set once by the constructor and never mutated afterwards.
type Message struct {
	Type      Type
	Sender    string
	Receiver  string
	Content   string
	Timestamp time.Time
	ID        string
}

// New builds a broadcast-addressed message, stamping it with the current
// time and a fresh id.
func New(t Type, sender, content string) *Message {
	return &Message{
		Type:      t,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now(),
		ID:        uuid.NewString(),
	}
}

// NewDirect builds a message addressed to a single receiver.
func NewDirect(t Type, sender, receiver, content string) *Message {
	m := New(t, sender, content)
	m.Receiver = receiver
	return m
}

// IsPrivate reports whether the message names a single receiver.
func (m *Message) IsPrivate() bool {
	return m.Receiver != ""
}
