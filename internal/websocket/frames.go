package websocket

import (
	"encoding/json"
	"strings"
	"time"
)

// FrameType identifies inbound commands and outbound events.
type FrameType string

const (
	// Inbound
	TypeSend       FrameType = "send"
	TypeConnect    FrameType = "connect"
	TypeDisconnect FrameType = "disconnect"

	// Outbound
	TypeMeeting FrameType = "meeting"
	TypeError   FrameType = "error"
)

// Frame is what a client sends over the socket.
type Frame struct {
	Type FrameType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Envelope is what subscribers of a destination receive.
type Envelope struct {
	Destination string          `json:"destination,omitempty"`
	Type        FrameType       `json:"type"`
	Data        json.RawMessage `json:"data"`
	Timestamp   time.Time       `json:"timestamp"`
}

// encodeEnvelope wraps payload for destination. The event type is the
// destination's kind, e.g. "connect" for /queue/connect/<id>.
func encodeEnvelope(destination string, payload any, now time.Time) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Destination: destination,
		Type:        destinationKind(destination),
		Data:        data,
		Timestamp:   now,
	})
}

func destinationKind(destination string) FrameType {
	parts := strings.Split(strings.Trim(destination, "/"), "/")
	if len(parts) < 2 {
		return FrameType(destination)
	}
	return FrameType(parts[len(parts)-2])
}
