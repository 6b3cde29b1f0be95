package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/thereayou/stringify/internal/handlers/dto"
	"github.com/thereayou/stringify/internal/services"
	"github.com/thereayou/stringify/internal/websocket"
)

// MessageHandler applies websocket frames to the session the client is
// bound to and publishes the outcome to the session's destinations.
type MessageHandler struct {
	coordinator *services.ConnectionCoordinator
	publisher   websocket.Publisher
	validate    *validator.Validate
	timeout     time.Duration
	log         *slog.Logger
}

func NewMessageHandler(coordinator *services.ConnectionCoordinator, publisher websocket.Publisher, timeout time.Duration, log *slog.Logger) *MessageHandler {
	return &MessageHandler{
		coordinator: coordinator,
		publisher:   publisher,
		validate:    validator.New(),
		timeout:     timeout,
		log:         log,
	}
}

func (h *MessageHandler) HandleFrame(ctx context.Context, client *websocket.Client, frame *websocket.Frame) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	switch frame.Type {
	case websocket.TypeSend:
		return h.handleSend(ctx, client, frame.Data)
	case websocket.TypeConnect:
		return h.handleConnect(ctx, client, frame.Data)
	case websocket.TypeDisconnect:
		return h.handleDisconnect(ctx, client, frame.Data)
	default:
		return fmt.Errorf("%w: unknown type %q", websocket.ErrInvalidFrame, frame.Type)
	}
}

// HandleClose disconnects the profile of a client that went away without
// saying so, so that a meeting never outlives its last participant. A profile
// that a newer socket has rejoined as is left alone.
func (h *MessageHandler) HandleClose(ctx context.Context, client *websocket.Client) {
	displayID := client.ProfileID()
	if displayID == uuid.Nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	notice, err := h.coordinator.OnConnectionClosed(ctx, client.SessionID, client.ID, displayID)
	switch {
	case err == nil:
		client.SetProfileID(uuid.Nil)
		h.announceDisconnect(ctx, client, notice)
		h.log.Info("Disconnected profile of closed socket", "session_id", client.SessionID, "profile", displayID)
	case errors.Is(err, services.ErrProfileTakenOver):
		h.log.Debug("Closed socket no longer owns its profile", "session_id", client.SessionID, "profile", displayID)
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrProfileNotFound):
		h.log.Debug("Closed socket had nothing to disconnect", "session_id", client.SessionID, "error", err)
	default:
		h.log.Error("Failed to disconnect closed socket", "session_id", client.SessionID, "error", err)
	}
}

func (h *MessageHandler) handleSend(ctx context.Context, client *websocket.Client, data json.RawMessage) error {
	var payload dto.MessageDto
	if err := h.decode(data, &payload); err != nil {
		return err
	}

	message, err := h.coordinator.OnMessage(ctx, client.SessionID, services.MessageDraft{
		CorrelationID: payload.Guid,
		Sender:        payload.From,
		Content:       payload.Content,
		Avatar:        payload.Avatar,
	})
	if err != nil {
		return err
	}

	h.publish(ctx, services.MessageDestination(client.SessionID), dto.ToMessageDto(*message))
	return nil
}

func (h *MessageHandler) handleConnect(ctx context.Context, client *websocket.Client, data json.RawMessage) error {
	var payload dto.ProfileDto
	if err := h.decode(data, &payload); err != nil {
		return err
	}

	// One socket speaks for one profile; only a rejoin as itself is allowed.
	if bound := client.ProfileID(); bound != uuid.Nil && bound != payload.Guid {
		return fmt.Errorf("%w: socket is already connected as %s", websocket.ErrInvalidFrame, bound)
	}

	notice, err := h.coordinator.OnConnectFrom(ctx, client.SessionID, client.ID, payload.ToModel())
	if err != nil {
		return err
	}
	client.SetProfileID(notice.Profile.DisplayID)

	h.publish(ctx, services.ConnectDestination(client.SessionID), dto.ToConnectionNoticeDto(notice.Profile, notice.Message))
	return nil
}

func (h *MessageHandler) handleDisconnect(ctx context.Context, client *websocket.Client, data json.RawMessage) error {
	var payload dto.ProfileDto
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("%w: %v", websocket.ErrInvalidFrame, err)
		}
	}

	displayID := payload.Guid
	if displayID == uuid.Nil {
		displayID = client.ProfileID()
	}
	if displayID == uuid.Nil {
		return fmt.Errorf("%w: no profile to disconnect", websocket.ErrInvalidFrame)
	}
	return h.disconnect(ctx, client, displayID)
}

func (h *MessageHandler) disconnect(ctx context.Context, client *websocket.Client, displayID uuid.UUID) error {
	notice, err := h.coordinator.OnDisconnect(ctx, client.SessionID, displayID)
	if err != nil {
		return err
	}
	if client.ProfileID() == displayID {
		client.SetProfileID(uuid.Nil)
	}
	h.announceDisconnect(ctx, client, notice)
	return nil
}

// announceDisconnect publishes notice; a nil notice means the meeting dissolved.
func (h *MessageHandler) announceDisconnect(ctx context.Context, client *websocket.Client, notice *services.ConnectionNotice) {
	if notice == nil {
		return
	}
	h.publish(ctx, services.DisconnectDestination(client.SessionID), dto.ToConnectionNoticeDto(notice.Profile, notice.Message))
}

func (h *MessageHandler) decode(data json.RawMessage, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", websocket.ErrInvalidFrame, err)
	}
	if err := h.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", websocket.ErrInvalidFrame, err)
	}
	return nil
}

// publish is best effort: the change is already committed.
func (h *MessageHandler) publish(ctx context.Context, destination string, payload any) {
	if err := h.publisher.Publish(ctx, destination, payload); err != nil {
		h.log.Warn("Publish failed", "destination", destination, "error", err)
	}
}
