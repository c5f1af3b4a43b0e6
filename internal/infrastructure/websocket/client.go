package websocket

import (
	"github.com/gorilla/websocket"

	"github.com/ssanidhya0407/thriveup-messaging/pkg/logger"
)

// Client wraps one WebSocket connection with a buffered outbound queue.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
}

// ReadPump drains inbound frames until the peer disconnects, then runs
// onClose. The live stream is one-way; inbound payloads are discarded.
func (c *Client) ReadPump(onClose func()) {
	defer func() {
		onClose()
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for %s: %v", c.UserID, err)
			}
			return
		}
	}
}

// WritePump forwards queued payloads to the connection. Closing Send sends a
// close frame and ends the pump.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("WebSocket write error for %s: %v", c.UserID, err)
			return
		}
	}
}
