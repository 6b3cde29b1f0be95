package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Hub fans events out to the clients subscribed to a destination. It only
// knows the clients of this process; RedisBridge spreads events across
// instances.
type Hub struct {
	clients map[uuid.UUID]*Client

	// destination -> subscribed clients
	subscriptions map[string]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu  sync.RWMutex
	log *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(log *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:       make(map[uuid.UUID]*Client),
		subscriptions: make(map[string]map[uuid.UUID]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		log:           log,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Run processes registrations until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Stop closes every client and ends Run.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		h.removeUnsafe(client)
		delete(h.clients, id)
		if client.Conn != nil {
			_ = client.Conn.Close()
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	for _, destination := range client.destinations {
		if _, ok := h.subscriptions[destination]; !ok {
			h.subscriptions[destination] = make(map[uuid.UUID]*Client)
		}
		h.subscriptions[destination][client.ID] = client
	}

	h.log.Debug("Client registered", "client_id", client.ID, "session_id", client.SessionID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		h.removeUnsafe(client)
		delete(h.clients, client.ID)
		h.log.Debug("Client unregistered", "client_id", client.ID, "session_id", client.SessionID)
	}
}

func (h *Hub) removeUnsafe(client *Client) {
	for _, destination := range client.destinations {
		if subscribers, ok := h.subscriptions[destination]; ok {
			delete(subscribers, client.ID)
			if len(subscribers) == 0 {
				delete(h.subscriptions, destination)
			}
		}
	}
	close(client.Send)
}

// Publish delivers payload to the local subscribers of destination.
func (h *Hub) Publish(ctx context.Context, destination string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.ctx.Err() != nil {
		return ErrHubStopped
	}
	data, err := encodeEnvelope(destination, payload, time.Now().UTC())
	if err != nil {
		return err
	}
	h.Deliver(destination, data)
	return nil
}

// Deliver sends an already encoded envelope to the local subscribers of
// destination. Slow clients are skipped rather than blocking the hub.
func (h *Hub) Deliver(destination string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.subscriptions[destination] {
		select {
		case client.Send <- data:
		default:
			h.log.Warn("Client send channel full", "client_id", client.ID, "destination", destination)
		}
	}
}

// Subscribers returns how many local clients listen on destination.
func (h *Hub) Subscribers(destination string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[destination])
}
