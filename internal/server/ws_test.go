package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bala7708/Live-Messaging-App/internal/message"
)

func startWSFrontEnd(t *testing.T, srv *Server) string {
	t.Helper()

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

type wsTestClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialWS(t *testing.T, url string) *wsTestClient {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("could not open WebSocket connection: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return &wsTestClient{t: t, conn: conn}
}

func (c *wsTestClient) send(m *message.Message) {
	c.t.Helper()

	frame, err := message.Encode(m)
	if err != nil {
		c.t.Fatalf("failed to encode message: %v", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.t.Fatalf("failed to send over WebSocket: %v", err)
	}
}

func (c *wsTestClient) expectType(want message.Type) *message.Message {
	c.t.Helper()

	deadline := time.Now().Add(messageTimeout)
	for time.Now().Before(deadline) {
		_ = c.conn.SetReadDeadline(deadline)
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.t.Fatalf("failed waiting for %s frame: %v", want, err)
		}
		m, err := message.Decode(frame)
		if err != nil {
			c.t.Fatalf("relay sent an undecodable frame: %v", err)
		}
		if m.Type == want {
			return m
		}
	}
	c.t.Fatalf("no %s frame arrived within %v", want, messageTimeout)
	return nil
}

// TestWebSocketLogin tests that a browser-style client can log in through
// the /ws endpoint and receives the same ack and presence traffic as a TCP
// client.
func TestWebSocketLogin(t *testing.T) {
	srv := startRelay(t, nil)
	wsURL := startWSFrontEnd(t, srv)

	ws := dialWS(t, wsURL)
	ws.send(message.New(message.TypeLogin, "webalice", ""))

	ack := ws.expectType(message.TypeLogin)
	if !strings.Contains(ack.Content, "webalice") {
		t.Errorf("login ack = %q, want a welcome for webalice", ack.Content)
	}

	list, err := message.DecodeUserList(ws.expectType(message.TypeUserList).Content)
	if err != nil {
		t.Fatalf("bad USER_LIST payload: %v", err)
	}
	if len(list) != 1 || list[0] != "webalice" {
		t.Errorf("USER_LIST = %v, want [webalice]", list)
	}
}

// TestWebSocketAndTCPShareTheRelay tests that both transports feed the same
// registry and router: a TCP broadcast reaches a WebSocket session and a
// WebSocket private message reaches a TCP session.
func TestWebSocketAndTCPShareTheRelay(t *testing.T) {
	srv := startRelay(t, nil)
	wsURL := startWSFrontEnd(t, srv)

	alice := dialRelay(t, srv.Addr())
	alice.login("alice")

	bob := dialWS(t, wsURL)
	bob.send(message.New(message.TypeLogin, "bob", ""))
	bob.expectType(message.TypeLogin)

	alice.send(message.New(message.TypeText, "alice", "hi"))
	got := bob.expectType(message.TypeText)
	if got.Sender != "alice" || got.Content != "hi" {
		t.Errorf("WebSocket client received %q from %q, want \"hi\" from alice", got.Content, got.Sender)
	}

	bob.send(message.NewDirect(message.TypePrivate, "bob", "alice", "yo"))
	private := alice.expectType(message.TypePrivate)
	if private.Sender != "bob" || private.Content != "yo" {
		t.Errorf("TCP client received %q from %q, want \"yo\" from bob", private.Content, private.Sender)
	}
}

// TestWebSocketRejectsDisallowedOrigin tests the origin allow-list on
// upgrade requests.
func TestWebSocketRejectsDisallowedOrigin(t *testing.T) {
	cfg := NewConfig()
	cfg.AllowedOrigins = []string{"http://trusted.example.com"}
	srv := startRelay(t, cfg)
	wsURL := startWSFrontEnd(t, srv)

	header := map[string][]string{"Origin": {"http://evil.example.com"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		conn.Close()
		t.Fatal("upgrade succeeded from a disallowed origin")
	}
	if resp != nil {
		resp.Body.Close()
	}

	header["Origin"] = []string{"http://trusted.example.com"}
	conn, resp, err = websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("upgrade failed from an allowed origin: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	conn.Close()
}

// TestHealthEndpoint tests the plain HTTP health check.
func TestHealthEndpoint(t *testing.T) {
	srv := startRelay(t, nil)

	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}
}
