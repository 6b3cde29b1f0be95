package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame
	writeWait = 10 * time.Second

	// Time allowed between pongs from the peer
	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 16 * 1024

	sendBuffer = 256
)

// FrameHandler reacts to frames read from a client.
type FrameHandler interface {
	HandleFrame(ctx context.Context, client *Client, frame *Frame) error
	// HandleClose runs once after the socket is gone.
	HandleClose(ctx context.Context, client *Client)
}

// Client is one websocket connection bound to a session.
type Client struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Conn      *websocket.Conn
	Send      chan []byte
	Hub       *Hub

	destinations []string
	log          *slog.Logger

	mu        sync.RWMutex
	profileID uuid.UUID
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID uuid.UUID, destinations []string, log *slog.Logger) *Client {
	id := uuid.New()
	return &Client{
		ID:           id,
		SessionID:    sessionID,
		Conn:         conn,
		Send:         make(chan []byte, sendBuffer),
		Hub:          hub,
		destinations: destinations,
		log:          log.With("client_id", id, "session_id", sessionID),
	}
}

// ProfileID is the display id the client connected as, or uuid.Nil.
func (c *Client) ProfileID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profileID
}

func (c *Client) SetProfileID(id uuid.UUID) {
	c.mu.Lock()
	c.profileID = id
	c.mu.Unlock()
}

// ReadPump reads frames until the connection fails, then unregisters the
// client and hands it to handler.HandleClose.
func (c *Client) ReadPump(ctx context.Context, handler FrameHandler) {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
		if handler != nil {
			handler.HandleClose(ctx, c)
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := c.Conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("WebSocket read failed", "error", err)
			}
			return
		}

		if handler == nil {
			continue
		}
		if err := handler.HandleFrame(ctx, c, &frame); err != nil {
			c.log.Info("Frame rejected", "type", frame.Type, "error", err)
			c.SendError(err)
		}
	}
}

// WritePump writes queued envelopes and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Flush whatever queued up meanwhile
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent queues an envelope for this client only.
func (c *Client) SendEvent(frameType FrameType, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(Envelope{
		Type:      frameType,
		Data:      payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	if _, ok := c.Hub.clients[c.ID]; !ok {
		return ErrClientClosed
	}
	select {
	case c.Send <- msg:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// ErrorBody is the data of an error frame.
type ErrorBody struct {
	Message string `json:"message"`
}

func (c *Client) SendError(err error) {
	if sendErr := c.SendEvent(TypeError, ErrorBody{Message: err.Error()}); sendErr != nil {
		c.log.Warn("Failed to send error frame", "error", sendErr)
	}
}
