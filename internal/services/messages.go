package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/thereayou/stringify/internal/clock"
	"github.com/thereayou/stringify/internal/database"
	"github.com/thereayou/stringify/internal/models"
)

// HistoryPageSize is the number of messages returned per history page.
const HistoryPageSize = 10

// MessageDraft is a message as received from a client, before it is stamped.
type MessageDraft struct {
	CorrelationID uuid.UUID
	Sender        string
	Content       string
	Avatar        string
}

// MessageStore is the append-only message log of every session.
type MessageStore struct {
	db       *database.Database
	registry *SessionRegistry
	clock    clock.Clock
}

func NewMessageStore(db *database.Database, registry *SessionRegistry, clk clock.Clock) *MessageStore {
	return &MessageStore{db: db, registry: registry, clock: clk}
}

func (s *MessageStore) withDB(tx *database.Database) *MessageStore {
	return &MessageStore{db: tx, registry: s.registry.withDB(tx), clock: s.clock}
}

// Append stamps draft with a fresh id and the current time and stores it
// under the session's storage id. Field lengths are validated by the caller.
func (s *MessageStore) Append(ctx context.Context, sessionID uuid.UUID, draft MessageDraft) (*models.Message, error) {
	correlationID := draft.CorrelationID
	if correlationID == uuid.Nil {
		correlationID = uuid.New()
	}

	message := &models.Message{
		ID:            uuid.New(),
		CorrelationID: correlationID,
		Sender:        draft.Sender,
		Content:       draft.Content,
		Avatar:        draft.Avatar,
		SentAt:        s.clock.Now(),
		SessionID:     sessionID,
	}
	if err := s.db.SaveMessage(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// History returns the page-th window of most recent messages, oldest first.
// Page 0 holds the newest HistoryPageSize messages.
func (s *MessageStore) History(ctx context.Context, id uuid.UUID, page int) ([]models.Message, error) {
	if page < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}

	session, err := s.registry.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	messages, err := s.db.FindMessagesBySessionPaged(ctx, session.ID, database.Page{
		Index:   page,
		Size:    HistoryPageSize,
		SortKey: "sent_at",
		Desc:    true,
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].SentAt.Before(messages[j].SentAt)
	})
	return messages, nil
}
