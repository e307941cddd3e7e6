package server

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrSendQueueFull is returned when a connection cannot keep up with its
// outbound traffic. The broadcast engine treats it like any other send
// failure and disconnects the laggard.
var ErrSendQueueFull = errors.New("send queue full")

// conn is one live WebSocket connection. All writes go through the send
// queue so the write pump is the only goroutine touching the socket for
// output.
type conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(id string, ws *websocket.Conn, queueSize int) *conn {
	return &conn{
		id:   id,
		ws:   ws,
		send: make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
}

// Send queues one frame for delivery. It never blocks: a full queue or a
// closed connection is an error for the caller to act on.
func (c *conn) Send(data []byte) error {
	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// close shuts the socket down exactly once and wakes the write pump.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump drains the send queue and keeps the connection alive with
// pings. It exits when the connection closes or a write fails.
func (c *conn) writePump(pingInterval, writeWait time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
