// Package client implements the relay client core: the connection, the
// listener loop, and the submit operations the display layer calls. How the
// callbacks are rendered is entirely up to the caller.
package client

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/bala7708/Live-Messaging-App/internal/message"
)

const dialTimeout = 5 * time.Second

// ConnectError reports that the relay endpoint was unreachable or refused
// the connection.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Handler receives relay traffic on the listener goroutine. Implementations
// should hand off to their own rendering machinery quickly.
type Handler interface {
	// OnMessage delivers TEXT and PRIVATE chat messages.
	OnMessage(m *message.Message)
	// OnSystemNotice delivers SYSTEM notice text.
	OnSystemNotice(text string)
	// OnUserListUpdate delivers the latest presence snapshot; the previous
	// snapshot is obsolete.
	OnUserListUpdate(usernames []string)
	// OnTypingIndicator reports that a user is typing.
	OnTypingIndicator(username string)
}

// Client is one authenticated connection to the relay.
type Client struct {
	conn     net.Conn
	handler  Handler
	username string

	mu        sync.Mutex
	connected bool
}

// Connect dials the relay, submits the login, and starts the listener
// goroutine. The returned client is ready to send.
func Connect(addr, username string, handler Handler) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	c := &Client{
		conn:      conn,
		handler:   handler,
		username:  username,
		connected: true,
	}

	if err := c.send(message.New(message.TypeLogin, username, "")); err != nil {
		conn.Close()
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	go c.listen()

	log.Printf("Connected to relay at %s as %s", addr, username)
	return c, nil
}

// Username returns the name this client logged in under.
func (c *Client) Username() string {
	return c.username
}

// Connected reports whether the connection is still up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) listen() {
	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		c.handleFrame(scanner.Bytes())
	}

	if err := scanner.Err(); err != nil && c.Connected() {
		log.Printf("Error reading from relay: %v", err)
	}
	c.Disconnect()
}

func (c *Client) handleFrame(frame []byte) {
	m, err := message.Decode(frame)
	if err != nil {
		log.Printf("Dropping malformed frame from relay: %v", err)
		return
	}

	switch m.Type {
	case message.TypeText, message.TypePrivate:
		c.handler.OnMessage(m)

	case message.TypeSystem:
		c.handler.OnSystemNotice(m.Content)

	case message.TypeUserList:
		usernames, err := message.DecodeUserList(m.Content)
		if err != nil {
			log.Printf("Bad user list from relay: %v", err)
			return
		}
		c.handler.OnUserListUpdate(usernames)

	case message.TypeTyping:
		c.handler.OnTypingIndicator(m.Sender)

	default:
		log.Printf("Received message: %s from %s", m.Type, m.Sender)
	}
}

func (c *Client) send(m *message.Message) error {
	frame, err := message.Encode(m)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return net.ErrClosed
	}
	_, err = c.conn.Write(frame)
	return err
}

// SendText submits a broadcast chat message.
func (c *Client) SendText(content string) error {
	return c.send(message.New(message.TypeText, c.username, content))
}

// SendPrivate submits a chat message for a single receiver.
func (c *Client) SendPrivate(receiver, content string) error {
	return c.send(message.NewDirect(message.TypePrivate, c.username, receiver, content))
}

// RequestUserList asks the relay to broadcast a fresh presence snapshot.
func (c *Client) RequestUserList() error {
	return c.send(message.New(message.TypeUserList, c.username, ""))
}

// SendTyping submits a typing indicator.
func (c *Client) SendTyping() error {
	return c.send(message.New(message.TypeTyping, c.username, "typing..."))
}

// Disconnect submits a logout and releases the connection. Safe to call
// more than once.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false

	logout, err := message.Encode(message.New(message.TypeLogout, c.username, ""))
	if err == nil {
		_, _ = c.conn.Write(logout)
	}
	c.conn.Close()
	c.mu.Unlock()

	log.Println("Disconnected from relay")
}
