package services

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/stringify/internal/clock"
	"github.com/thereayou/stringify/internal/database"
	"github.com/thereayou/stringify/internal/models"
	"github.com/thereayou/stringify/pkg/key"
)

const testJoinURLBase = "https://stringify-chat.netlify.app/connect?chat-id="

type testServices struct {
	db          *database.Database
	clock       *clock.Fake
	registry    *SessionRegistry
	messages    *MessageStore
	meetings    *MeetingService
	coordinator *ConnectionCoordinator
}

func newTestServices(t *testing.T) *testServices {
	return newTestServicesWithKeys(t, key.NewGenerator())
}

func newTestServicesWithKeys(t *testing.T, keys KeyGenerator) *testServices {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	fake := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	clk := clock.NewMonotonic(fake)

	registry := NewSessionRegistry(db, keys, clk, RegistryConfig{JoinURLBase: testJoinURLBase}, log)
	messages := NewMessageStore(db, registry, clk)
	return &testServices{
		db:          db,
		clock:       fake,
		registry:    registry,
		messages:    messages,
		meetings:    NewMeetingService(db, registry, log),
		coordinator: NewConnectionCoordinator(db, registry, messages, log),
	}
}

// scriptedKeys replays keys in order, then repeats the last one.
type scriptedKeys struct {
	mu   sync.Mutex
	keys []key.Key
	next int
}

func (s *scriptedKeys) Generate() key.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.keys[min(s.next, len(s.keys)-1)]
	s.next++
	return k
}

func profile(name string) models.Profile {
	return models.Profile{DisplayID: uuid.New(), Name: name, Avatar: "avatar-" + name}
}
