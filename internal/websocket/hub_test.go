package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logs.GetLoggerFromLevel(slog.LevelDebug))
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

// waitRegistered waits until the hub's Run loop has processed registration.
func waitRegistered(t *testing.T, hub *Hub, destination string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers(destination) == n }, time.Second, 5*time.Millisecond)
}

func readEnvelope(t *testing.T, ch <-chan []byte) Envelope {
	t.Helper()
	select {
	case data := <-ch:
		var envelope Envelope
		require.NoError(t, json.Unmarshal(data, &envelope))
		return envelope
	case <-time.After(time.Second):
		t.Fatal("no envelope received")
		return Envelope{}
	}
}

func TestDestinationKind(t *testing.T) {
	id := uuid.NewString()
	require.Equal(t, TypeMeeting, destinationKind("/queue/meeting/"+id))
	require.Equal(t, TypeConnect, destinationKind("/queue/connect/"+id))
	require.Equal(t, TypeDisconnect, destinationKind("/queue/disconnect/"+id))
}

func TestHub_PublishToSubscribers(t *testing.T) {
	hub := newTestHub(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	sessionA, sessionB := uuid.New(), uuid.New()
	destA := "/queue/meeting/" + sessionA.String()
	destB := "/queue/meeting/" + sessionB.String()

	a1 := NewClient(hub, nil, sessionA, []string{destA}, log)
	a2 := NewClient(hub, nil, sessionA, []string{destA}, log)
	b1 := NewClient(hub, nil, sessionB, []string{destB}, log)
	for _, c := range []*Client{a1, a2, b1} {
		hub.Register(c)
	}
	waitRegistered(t, hub, destA, 2)
	waitRegistered(t, hub, destB, 1)

	require.NoError(t, hub.Publish(context.Background(), destA, map[string]string{"content": "hello"}))

	for _, c := range []*Client{a1, a2} {
		envelope := readEnvelope(t, c.Send)
		require.Equal(t, destA, envelope.Destination)
		require.Equal(t, TypeMeeting, envelope.Type)
		require.JSONEq(t, `{"content":"hello"}`, string(envelope.Data))
	}
	require.Empty(t, b1.Send)
}

func TestHub_Unregister(t *testing.T) {
	hub := newTestHub(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	sessionID := uuid.New()
	dest := "/queue/connect/" + sessionID.String()
	client := NewClient(hub, nil, sessionID, []string{dest}, log)
	hub.Register(client)
	waitRegistered(t, hub, dest, 1)

	hub.Unregister(client)
	waitRegistered(t, hub, dest, 0)

	_, ok := <-client.Send
	require.False(t, ok)
	require.ErrorIs(t, client.SendEvent(TypeError, ErrorBody{Message: "late"}), ErrClientClosed)
	require.NoError(t, hub.Publish(context.Background(), dest, "nobody listens"))
}

func TestHub_PublishCanceledContext(t *testing.T) {
	hub := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, hub.Publish(ctx, "/queue/meeting/x", "x"), context.Canceled)
}

type recordingHandler struct {
	mu     sync.Mutex
	frames []Frame
	closed chan uuid.UUID
}

func (h *recordingHandler) HandleFrame(_ context.Context, client *Client, frame *Frame) error {
	h.mu.Lock()
	h.frames = append(h.frames, *frame)
	h.mu.Unlock()

	if frame.Type != TypeSend {
		return errors.New("unsupported frame")
	}
	return client.Hub.Publish(context.Background(), client.destinations[0], frame.Data)
}

func (h *recordingHandler) HandleClose(_ context.Context, client *Client) {
	h.closed <- client.ID
}

func TestClient_Pumps(t *testing.T) {
	hub := newTestHub(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	handler := &recordingHandler{closed: make(chan uuid.UUID, 1)}

	sessionID := uuid.New()
	dest := "/queue/meeting/" + sessionID.String()
	upgrader := websocket.Upgrader{}
	accepted := make(chan *Client, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		client := NewClient(hub, conn, sessionID, []string{dest}, log)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump(context.Background(), handler)
		accepted <- client
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	serverClient := <-accepted
	waitRegistered(t, hub, dest, 1)

	require.NoError(t, conn.WriteJSON(Frame{Type: TypeSend, Data: json.RawMessage(`{"content":"hi"}`)}))
	var envelope Envelope
	require.NoError(t, conn.ReadJSON(&envelope))
	require.Equal(t, TypeMeeting, envelope.Type)
	require.JSONEq(t, `{"content":"hi"}`, string(envelope.Data))

	require.NoError(t, conn.WriteJSON(Frame{Type: "bogus"}))
	require.NoError(t, conn.ReadJSON(&envelope))
	require.Equal(t, TypeError, envelope.Type)
	require.JSONEq(t, `{"message":"unsupported frame"}`, string(envelope.Data))

	require.NoError(t, conn.Close())
	select {
	case id := <-handler.closed:
		require.Equal(t, serverClient.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("close not reported")
	}
	waitRegistered(t, hub, dest, 0)
}
