package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	sendBufferSize = 256
)

// Client is one websocket subscription to a ticket channel.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan Event
	ticketID string
	userID   string
}

func NewClient(hub *Hub, conn *websocket.Conn, ticketID, userID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan Event, sendBufferSize),
		ticketID: ticketID,
		userID:   userID,
	}
}

// Start registers the client and launches its pumps.
func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
}

// inboundFrame is what a client may send upstream. Only typing indicators
// travel this direction; messages go through the HTTP API.
type inboundFrame struct {
	Type     string `json:"type"`
	IsTyping bool   `json:"is_typing"`
}

// readPump pumps inbound frames from the connection to the hub.
func (c *Client) readPump() {
	defer func() {
		// A vanished client stops typing.
		c.hub.SetTyping(c.ticketID, c.userID, false)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("realtime: read error: %v", err)
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		if frame.Type == string(EventTyping) {
			c.hub.SetTyping(c.ticketID, c.userID, frame.IsTyping)
		}
	}
}

// writePump pumps events from the hub to the connection and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
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
