package realtime

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Message is the envelope exchanged over the alert socket.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	Lat  *float64        `json:"lat,omitempty"`
	Lon  *float64        `json:"lon,omitempty"`
}

// Message types.
const (
	MessageSubscribed = "subscribed"
	MessageToast      = "toast"
	MessageLocation   = "location"
)

// Client pumps toasts from a subscription to a WebSocket connection and
// reads location updates back.
type Client struct {
	conn   *websocket.Conn
	sub    *Subscription
	logger *slog.Logger
}

func NewClient(conn *websocket.Conn, sub *Subscription, logger *slog.Logger) *Client {
	return &Client{conn: conn, sub: sub, logger: logger}
}

// Serve runs both pumps and returns once the connection or the subscription
// ends. The subscription is released on return.
func (c *Client) Serve() {
	go c.readPump()
	c.writePump()
}

func (c *Client) readPump() {
	defer c.sub.Unsubscribe()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read failed", "user_id", c.sub.UserID(), "error", err)
			}
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debug("ignoring malformed client message", "error", err)
		return
	}
	switch msg.Type {
	case MessageLocation:
		if msg.Lat != nil && msg.Lon != nil {
			c.sub.UpdateLocation(domain.Geo{Lat: *msg.Lat, Lon: *msg.Lon})
		}
	default:
		c.logger.Debug("ignoring client message", "type", msg.Type)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sub.Unsubscribe()
		_ = c.conn.Close()
	}()

	if err := c.write(Message{Type: MessageSubscribed}); err != nil {
		return
	}

	for {
		select {
		case toast := <-c.sub.C():
			data, err := json.Marshal(toast)
			if err != nil {
				c.logger.Error("marshal toast failed", "alert_id", toast.AlertID, "error", err)
				continue
			}
			if err := c.write(Message{Type: MessageToast, Data: data}); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.sub.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(msg Message) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}
