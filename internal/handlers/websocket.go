package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/thereayou/stringify/internal/middleware"
	"github.com/thereayou/stringify/internal/services"
	ws "github.com/thereayou/stringify/internal/websocket"
)

// WebSocketHandler upgrades authorised handshakes and starts the client pumps.
type WebSocketHandler struct {
	hub            *ws.Hub
	meetings       *services.MeetingService
	messageHandler *MessageHandler
	upgrader       websocket.Upgrader
	ctx            context.Context
	log            *slog.Logger

	// read pumps, each ending with its close handling
	pumps sync.WaitGroup
}

// NewWebSocketHandler builds the handler. ctx bounds the lifetime of every
// connection it accepts.
func NewWebSocketHandler(ctx context.Context, hub *ws.Hub, meetings *services.MeetingService, messageHandler *MessageHandler, origins []string, log *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		meetings:       meetings,
		messageHandler: messageHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.AllowOrigin(origins, origin)
			},
		},
		ctx: ctx,
		log: log,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	sessionID := c.MustGet(middleware.SessionIDKey).(uuid.UUID)

	if _, err := h.meetings.Find(c.Request.Context(), sessionID); err != nil {
		respondError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn, sessionID, services.SessionDestinations(sessionID), h.log)
	h.hub.Register(client)

	h.pumps.Add(1)
	go client.WritePump()
	go func() {
		defer h.pumps.Done()
		client.ReadPump(h.ctx, h.messageHandler)
	}()
}

// Wait blocks until every accepted socket has finished its close handling,
// or until timeout. It reports whether all of them finished.
func (h *WebSocketHandler) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		h.pumps.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
