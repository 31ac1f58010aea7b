package client_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bala7708/Live-Messaging-App/internal/client"
	"github.com/bala7708/Live-Messaging-App/internal/message"
	"github.com/bala7708/Live-Messaging-App/internal/server"
)

const eventTimeout = 2 * time.Second

// recordingHandler funnels callbacks into channels so tests can wait on
// specific events.
type recordingHandler struct {
	messages  chan *message.Message
	notices   chan string
	userLists chan []string
	typing    chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		messages:  make(chan *message.Message, 16),
		notices:   make(chan string, 16),
		userLists: make(chan []string, 16),
		typing:    make(chan string, 16),
	}
}

func (h *recordingHandler) OnMessage(m *message.Message)        { h.messages <- m }
func (h *recordingHandler) OnSystemNotice(text string)          { h.notices <- text }
func (h *recordingHandler) OnUserListUpdate(usernames []string) { h.userLists <- usernames }
func (h *recordingHandler) OnTypingIndicator(username string)   { h.typing <- username }

func startRelay(t *testing.T) *server.Server {
	t.Helper()

	cfg := server.NewConfig()
	cfg.Addr = "127.0.0.1:0"

	srv := server.NewServer(cfg)
	if err := srv.Listen(); err != nil {
		t.Fatalf("could not start relay: %v", err)
	}
	go func() {
		_ = srv.Serve()
	}()
	t.Cleanup(func() {
		_ = srv.Shutdown(2 * time.Second)
	})

	return srv
}

func connect(t *testing.T, addr, username string) (*client.Client, *recordingHandler) {
	t.Helper()

	h := newRecordingHandler()
	c, err := client.Connect(addr, username, h)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	t.Cleanup(c.Disconnect)

	return c, h
}

func waitNotice(t *testing.T, h *recordingHandler, substr string) {
	t.Helper()

	deadline := time.After(eventTimeout)
	for {
		select {
		case notice := <-h.notices:
			if strings.Contains(notice, substr) {
				return
			}
		case <-deadline:
			t.Fatalf("no system notice mentioning %q arrived", substr)
		}
	}
}

// TestConnectLogsInAndSeesPresence tests that Connect submits the login and
// the handler receives the join notice and presence snapshot.
func TestConnectLogsInAndSeesPresence(t *testing.T) {
	srv := startRelay(t)

	c, h := connect(t, srv.Addr(), "alice")
	if c.Username() != "alice" {
		t.Errorf("Username() = %q, want alice", c.Username())
	}

	waitNotice(t, h, "alice joined")

	select {
	case list := <-h.userLists:
		if len(list) != 1 || list[0] != "alice" {
			t.Errorf("user list = %v, want [alice]", list)
		}
	case <-time.After(eventTimeout):
		t.Fatal("no user list update arrived")
	}
}

// TestBroadcastAndPrivateBetweenClients tests the full alice/bob scenario
// through the client core: broadcast text both ways, then a private message
// with sender echo.
func TestBroadcastAndPrivateBetweenClients(t *testing.T) {
	srv := startRelay(t)

	alice, ah := connect(t, srv.Addr(), "alice")
	bob, bh := connect(t, srv.Addr(), "bob")
	waitNotice(t, ah, "bob joined")

	if err := alice.SendText("hi"); err != nil {
		t.Fatalf("SendText() error: %v", err)
	}
	for name, ch := range map[string]chan *message.Message{"alice": ah.messages, "bob": bh.messages} {
		select {
		case m := <-ch:
			if m.Sender != "alice" || m.Content != "hi" {
				t.Errorf("%s received %q from %q, want \"hi\" from alice", name, m.Content, m.Sender)
			}
		case <-time.After(eventTimeout):
			t.Fatalf("%s never received the broadcast", name)
		}
	}

	if err := bob.SendPrivate("alice", "yo"); err != nil {
		t.Fatalf("SendPrivate() error: %v", err)
	}
	for name, ch := range map[string]chan *message.Message{"alice": ah.messages, "bob": bh.messages} {
		select {
		case m := <-ch:
			if m.Type != message.TypePrivate || m.Sender != "bob" || m.Receiver != "alice" || m.Content != "yo" {
				t.Errorf("%s received %+v, want private bob -> alice: yo", name, m)
			}
		case <-time.After(eventTimeout):
			t.Fatalf("%s never received the private message", name)
		}
	}
}

// TestTypingIndicatorReachesPeers tests the typing callback path.
func TestTypingIndicatorReachesPeers(t *testing.T) {
	srv := startRelay(t)

	alice, ah := connect(t, srv.Addr(), "alice")
	_, bh := connect(t, srv.Addr(), "bob")
	waitNotice(t, ah, "bob joined")

	if err := alice.SendTyping(); err != nil {
		t.Fatalf("SendTyping() error: %v", err)
	}

	select {
	case who := <-bh.typing:
		if who != "alice" {
			t.Errorf("typing indicator from %q, want alice", who)
		}
	case <-time.After(eventTimeout):
		t.Fatal("no typing indicator arrived")
	}
}

// TestDisconnectLogsOut tests that Disconnect submits a logout the peers
// observe, and that it is safe to call twice.
func TestDisconnectLogsOut(t *testing.T) {
	srv := startRelay(t)

	alice, _ := connect(t, srv.Addr(), "alice")
	_, bh := connect(t, srv.Addr(), "bob")
	waitNotice(t, bh, "bob joined")

	alice.Disconnect()
	alice.Disconnect()

	waitNotice(t, bh, "alice left")
	if alice.Connected() {
		t.Error("Connected() = true after Disconnect()")
	}
}

// TestConnectErrorSurfaces tests that an unreachable endpoint produces a
// ConnectError rather than a panic or a hung client.
func TestConnectErrorSurfaces(t *testing.T) {
	h := newRecordingHandler()

	_, err := client.Connect("127.0.0.1:1", "alice", h)
	if err == nil {
		t.Fatal("Connect() succeeded against a dead endpoint")
	}

	var connectErr *client.ConnectError
	if !errors.As(err, &connectErr) {
		t.Errorf("Connect() error type = %T, want *client.ConnectError", err)
	}
}
