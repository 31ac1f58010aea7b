// Command relay-client is a minimal line-oriented chat client. It is a thin
// display layer over the client core: incoming traffic is printed to stdout
// and stdin lines are submitted as messages.
//
// Input:
//
//	/msg <user> <text>  send a private message
//	/users              ask for a fresh user list
//	/quit               log out and exit
//	anything else       broadcast text
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bala7708/Live-Messaging-App/internal/client"
	"github.com/bala7708/Live-Messaging-App/internal/message"
)

type consoleHandler struct{}

func (consoleHandler) OnMessage(m *message.Message) {
	stamp := m.Timestamp.Format("15:04:05")
	if m.IsPrivate() {
		fmt.Printf("[%s] %s -> %s: %s\n", stamp, m.Sender, m.Receiver, m.Content)
		return
	}
	fmt.Printf("[%s] %s: %s\n", stamp, m.Sender, m.Content)
}

func (consoleHandler) OnSystemNotice(text string) {
	fmt.Printf("*** %s\n", text)
}

func (consoleHandler) OnUserListUpdate(usernames []string) {
	fmt.Printf("*** online: %s\n", strings.Join(usernames, ", "))
}

func (consoleHandler) OnTypingIndicator(username string) {
	// Not rendered in the line console.
}

func main() {
	addr := flag.String("addr", "localhost:5000", "relay address")
	name := flag.String("name", "", "username to log in as")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: relay-client -name <username> [-addr host:port]")
		os.Exit(2)
	}

	c, err := client.Connect(*addr, *name, consoleHandler{})
	if err != nil {
		log.Fatalf("Could not connect: %v", err)
	}
	defer c.Disconnect()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return

		case strings.HasPrefix(line, "/msg "):
			rest := strings.TrimPrefix(line, "/msg ")
			parts := strings.SplitN(rest, " ", 2)
			if len(parts) != 2 {
				fmt.Println("usage: /msg <user> <text>")
				continue
			}
			if err := c.SendPrivate(parts[0], parts[1]); err != nil {
				log.Printf("Send failed: %v", err)
			}

		case line == "/users":
			if err := c.RequestUserList(); err != nil {
				log.Printf("Send failed: %v", err)
			}

		default:
			if err := c.SendText(line); err != nil {
				log.Printf("Send failed: %v", err)
			}
		}
	}
}
