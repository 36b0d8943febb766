// Package wsconn is a thin wrapper around gorilla/websocket that gives
// every ALiS/asciicast streaming task (local or remote, server or
// client) the same small surface: write with a deadline, read a frame,
// close once. Modeled on the single-task-per-connection, no-automatic-
// reconnect style of ehrlich-b-wingthing's internal/relay (its PTY
// websocket relay loop), adapted from that example's read/write-per-
// message shape to a send/receive-deadline wrapper around gorilla's API.
package wsconn

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// WriteTimeout bounds how long a single frame write may block before
// the connection is treated as failed.
const WriteTimeout = 10 * time.Second

// Conn wraps a gorilla/websocket connection for one streaming task.
type Conn struct {
	ws *websocket.Conn
}

// New wraps an already-established gorilla/websocket connection
// (returned by either websocket.Upgrader.Upgrade on the server side or
// websocket.Dialer.Dial on the client side).
func New(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteBinary sends one binary frame, used for ALiS v1 messages.
func (c *Conn) WriteBinary(data []byte) error {
	return c.write(websocket.BinaryMessage, data)
}

// WriteText sends one text frame, used for JSON event and asciicast v3
// text-streamer messages.
func (c *Conn) WriteText(data []byte) error {
	return c.write(websocket.TextMessage, data)
}

func (c *Conn) write(messageType int, data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(WriteTimeout)); err != nil {
		return fmt.Errorf("wsconn: set write deadline: %w", err)
	}
	if err := c.ws.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("wsconn: write: %w", err)
	}
	return nil
}

// ReadMessage blocks for the next frame from the peer. No streamer or
// endpoint in this tree reads inbound frames; the connections are
// outbound-only.
func (c *Conn) ReadMessage() (messageType int, data []byte, err error) {
	return c.ws.ReadMessage()
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Conn) Close() error {
	return c.ws.Close()
}
