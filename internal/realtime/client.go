package realtime

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client bridges one WebSocket connection to a hub subscriber. The live
// channel is push-only: inbound frames are drained for keepalive purposes
// and otherwise discarded (sends go through the HTTP API).
type Client struct {
	hub  *Hub
	sub  *Subscriber
	conn *websocket.Conn
	log  *logger.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, log *logger.Logger) *Client {
	sub := hub.Subscribe()
	return &Client{
		hub:  hub,
		sub:  sub,
		conn: conn,
		log:  log.With("component", "WSClient", "subscriber_id", sub.ID),
	}
}

// WritePump pushes hub payloads to the socket and keeps the connection
// alive with pings. It exits when the subscriber channel closes or a write
// fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.sub.Outbound:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				c.log.Debug("write failed, closing", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes the socket until it errors or closes, then tears down
// the subscription.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unsubscribe(c.sub)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("unexpected close", "error", err)
			}
			return
		}
	}
}
