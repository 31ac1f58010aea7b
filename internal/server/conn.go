package server

import (
	"bufio"
	"io"
	"net"

	"github.com/gorilla/websocket"
)

// frameConn abstracts one client connection as a sequence of frames, so the
// session and router logic stay identical across the TCP line protocol and
// the WebSocket front end.
type frameConn interface {
	// ReadFrame blocks until one inbound frame is available.
	ReadFrame() ([]byte, error)
	// WriteFrame writes one outbound frame. Callers serialize writes.
	WriteFrame(frame []byte) error
	Close() error
	RemoteAddr() string
}

// tcpFrameConn frames messages as newline-terminated lines on a raw TCP
// connection.
type tcpFrameConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func newTCPFrameConn(conn net.Conn, maxFrameSize int64) *tcpFrameConn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 1024), int(maxFrameSize))
	return &tcpFrameConn{
		conn:    conn,
		scanner: scanner,
	}
}

func (c *tcpFrameConn) ReadFrame() ([]byte, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	// Copy out: the scanner reuses its buffer on the next Scan.
	line := c.scanner.Bytes()
	frame := make([]byte, len(line))
	copy(frame, line)
	return frame, nil
}

func (c *tcpFrameConn) WriteFrame(frame []byte) error {
	_, err := c.conn.Write(frame)
	return err
}

func (c *tcpFrameConn) Close() error {
	return c.conn.Close()
}

func (c *tcpFrameConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// wsFrameConn maps one WebSocket text message to one frame.
type wsFrameConn struct {
	conn *websocket.Conn
}

func newWSFrameConn(conn *websocket.Conn, maxFrameSize int64) *wsFrameConn {
	conn.SetReadLimit(maxFrameSize)
	return &wsFrameConn{conn: conn}
}

func (c *wsFrameConn) ReadFrame() ([]byte, error) {
	_, frame, err := c.conn.ReadMessage()
	return frame, err
}

func (c *wsFrameConn) WriteFrame(frame []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *wsFrameConn) Close() error {
	return c.conn.Close()
}

func (c *wsFrameConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
